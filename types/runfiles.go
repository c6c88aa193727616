//nolint:revive // types is a common Go package naming convention
package types

import (
	"errors"
	"fmt"
)

// RunfilesSupplier describes one runfiles tree attached to an action:
// the runtime-relative directory the tree is mounted at and the
// artifacts visible inside it, keyed by tree-relative path.
//
// Multiple suppliers may be attached to one action. Their directories
// and contents are part of the action's identity. A supplier may carry
// only a manifest artifact: the manifest is then an action input but
// is stripped from the Spawn's input files (the executor materializes
// the tree from the manifest instead).
type RunfilesSupplier struct {
	// Dir is the runtime-relative directory of the tree.
	Dir string
	// Mappings maps tree-relative paths to backing artifacts.
	Mappings map[string]*Artifact
	// Manifest optionally names a manifest artifact describing the tree.
	Manifest *Artifact
}

// Validate checks structural rules: a non-empty directory and no nil
// mapped artifacts.
func (s *RunfilesSupplier) Validate() error {
	if s.Dir == "" {
		return errors.New("runfiles supplier dir must be non-empty")
	}

	for rel, a := range s.Mappings {
		if rel == "" {
			return fmt.Errorf("runfiles supplier %q has an empty mapping path", s.Dir)
		}
		if a == nil {
			return fmt.Errorf("runfiles supplier %q maps %q to a nil artifact", s.Dir, rel)
		}
	}

	return nil
}

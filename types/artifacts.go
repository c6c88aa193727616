// Package types defines the core data model for action construction.
// Values are immutable once constructed and safe to share across builders.
// Wire-facing shapes conform to CONTRACT_ACTION.md.
//
//nolint:revive // types is a common Go package naming convention
package types

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ArtifactKind discriminates source files from derived files.
type ArtifactKind string

const (
	// ArtifactSource is a pre-existing file, never produced by any action.
	ArtifactSource ArtifactKind = "source"
	// ArtifactDerived is produced by exactly one action in a plan.
	ArtifactDerived ArtifactKind = "derived"
)

// Artifact references a file by its execution-root-relative path.
// The action core only holds references; path resolution and file
// content belong to the excluded filesystem layer.
type Artifact struct {
	// ExecPath is the execution-root-relative path, forward slashes only.
	ExecPath string
	// Kind discriminates source from derived artifacts.
	Kind ArtifactKind
}

// SourceArtifact returns a reference to a pre-existing file.
func SourceArtifact(execPath string) *Artifact {
	return &Artifact{ExecPath: execPath, Kind: ArtifactSource}
}

// DerivedArtifact returns a reference to a file produced by an action.
func DerivedArtifact(execPath string) *Artifact {
	return &Artifact{ExecPath: execPath, Kind: ArtifactDerived}
}

// Validate checks path well-formedness:
//   - non-empty, relative, forward slashes only
//   - no "." or ".." segments
//   - a known kind
func (a *Artifact) Validate() error {
	if a.ExecPath == "" {
		return errors.New("artifact exec path must be non-empty")
	}

	if strings.HasPrefix(a.ExecPath, "/") {
		return fmt.Errorf("artifact exec path %q must be relative", a.ExecPath)
	}

	if strings.Contains(a.ExecPath, "\\") {
		return fmt.Errorf("artifact exec path %q must use forward slashes", a.ExecPath)
	}

	for _, seg := range strings.Split(a.ExecPath, "/") {
		if seg == "" {
			return fmt.Errorf("artifact exec path %q has an empty segment", a.ExecPath)
		}
		if seg == "." || seg == ".." {
			return fmt.Errorf("artifact exec path %q must not contain %q segments", a.ExecPath, seg)
		}
	}

	switch a.Kind {
	case ArtifactSource, ArtifactDerived:
	default:
		return fmt.Errorf("unknown artifact kind %q", a.Kind)
	}

	return nil
}

// Basename returns the final path element.
func (a *Artifact) Basename() string {
	return path.Base(a.ExecPath)
}

// SiblingPath returns the exec path of a file named name in the same
// directory as this artifact.
func (a *Artifact) SiblingPath(name string) string {
	dir := path.Dir(a.ExecPath)
	if dir == "." {
		return name
	}
	return dir + "/" + name
}

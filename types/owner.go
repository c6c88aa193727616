//nolint:revive // types is a common Go package naming convention
package types

import (
	"errors"
	"fmt"
	"unicode"
)

// DefaultMnemonic is used when a builder sets no mnemonic.
const DefaultMnemonic = "Unknown"

// Owner identifies the rule that requested an action. Opaque to
// construction; carried through to diagnostics untouched.
type Owner struct {
	// Label is the requesting rule's label.
	Label string
	// Configuration is a short configuration identifier.
	Configuration string
}

// ValidateMnemonic validates a mnemonic per CONTRACT_ACTION.md:
//   - non-empty
//   - no whitespace of any kind
//   - no path separators
//
// Invalid mnemonics fail construction; they are never sanitized.
func ValidateMnemonic(mnemonic string) error {
	if mnemonic == "" {
		return errors.New("mnemonic must be non-empty")
	}

	for _, r := range mnemonic {
		if unicode.IsSpace(r) {
			return fmt.Errorf("mnemonic %q must not contain whitespace", mnemonic)
		}
		if r == '/' || r == '\\' {
			return fmt.Errorf("mnemonic %q must not contain path separators", mnemonic)
		}
	}

	return nil
}

//nolint:revive // types is a common Go package naming convention
package types

import (
	"errors"
	"fmt"
	"strings"
)

// ParamFileType selects how spilled arguments are serialized.
type ParamFileType string

const (
	// ParamFileUnquoted writes each argument verbatim, one per line.
	ParamFileUnquoted ParamFileType = "unquoted"
	// ParamFileShellQuoted shell-quotes each argument, one per line.
	ParamFileShellQuoted ParamFileType = "shell"
)

// ParamFileCharset selects the text encoding of a parameter file.
type ParamFileCharset string

const (
	// CharsetUTF8 writes UTF-8.
	CharsetUTF8 ParamFileCharset = "utf8"
	// CharsetLatin1 writes ISO-8859-1.
	CharsetLatin1 ParamFileCharset = "latin1"
)

// DefaultFlagFormat is the reference-argument template applied when a
// ParamFileInfo does not override it.
const DefaultFlagFormat = "@%s"

// ParamFileInfo configures spill eligibility for one command-line
// segment. Supplied per segment by the caller; a segment without one
// is never spilled.
type ParamFileInfo struct {
	// Type selects the serialization of spilled arguments.
	Type ParamFileType
	// Charset selects the text encoding. Empty means UTF-8.
	Charset ParamFileCharset
	// FlagFormat is the reference-argument template. It must contain
	// exactly one %s placeholder; %% escapes a literal percent.
	// Empty means DefaultFlagFormat.
	FlagFormat string
}

// Validate checks that the content type, charset, and flag format are
// supported.
func (p *ParamFileInfo) Validate() error {
	switch p.Type {
	case ParamFileUnquoted, ParamFileShellQuoted:
	default:
		return fmt.Errorf("unsupported param file type %q", p.Type)
	}

	switch p.Charset {
	case "", CharsetUTF8, CharsetLatin1:
	default:
		return fmt.Errorf("unsupported param file charset %q", p.Charset)
	}

	if _, _, err := splitFlagFormat(p.flagFormat()); err != nil {
		return err
	}

	return nil
}

// FormatRef renders the single reference argument for a parameter file
// at execPath.
func (p *ParamFileInfo) FormatRef(execPath string) (string, error) {
	prefix, suffix, err := splitFlagFormat(p.flagFormat())
	if err != nil {
		return "", err
	}
	return prefix + execPath + suffix, nil
}

func (p *ParamFileInfo) flagFormat() string {
	if p.FlagFormat == "" {
		return DefaultFlagFormat
	}
	return p.FlagFormat
}

// splitFlagFormat parses a flag-format template into the prefix and
// suffix around its single %s placeholder. %% escapes a literal
// percent; any other directive is rejected.
func splitFlagFormat(format string) (prefix, suffix string, err error) {
	var sb strings.Builder
	inPercent := false
	gotPlaceholder := false

	for _, r := range format {
		if inPercent {
			switch r {
			case '%':
				sb.WriteRune('%')
			case 's':
				if gotPlaceholder {
					return "", "", fmt.Errorf("flag format %q contains multiple %%s placeholders", format)
				}
				gotPlaceholder = true
				prefix = sb.String()
				sb.Reset()
			default:
				return "", "", fmt.Errorf("flag format %q contains unknown directive %%%c", format, r)
			}
			inPercent = false
			continue
		}
		if r == '%' {
			inPercent = true
			continue
		}
		sb.WriteRune(r)
	}

	if inPercent {
		return "", "", fmt.Errorf("flag format %q ends with an unterminated %%", format)
	}
	if !gotPlaceholder {
		return "", "", errors.New("flag format must contain a %s placeholder")
	}

	return prefix, sb.String(), nil
}

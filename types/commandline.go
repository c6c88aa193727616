//nolint:revive // types is a common Go package naming convention
package types

import (
	"errors"
	"fmt"
	"strings"
)

// FragmentKind discriminates command-line fragment variants.
type FragmentKind string

const (
	// FragmentLiteral is a fixed string.
	FragmentLiteral FragmentKind = "literal"
	// FragmentArtifactPath expands to an artifact's exec path at
	// evaluation time.
	FragmentArtifactPath FragmentKind = "artifact_path"
	// FragmentJoined joins the evaluated parts with a separator into
	// a single argument.
	FragmentJoined FragmentKind = "joined"
)

// Fragment is one element of a CommandLine. Exactly the fields for its
// Kind are set; evaluation is deferred so artifact paths are read at
// expansion time, not at append time.
type Fragment struct {
	// Kind selects the variant.
	Kind FragmentKind
	// Value is the string for literal fragments.
	Value string
	// Artifact backs artifact_path fragments.
	Artifact *Artifact
	// Parts and Separator describe joined fragments.
	Parts     []Fragment
	Separator string
}

// Literal returns a fixed-string fragment.
func Literal(s string) Fragment {
	return Fragment{Kind: FragmentLiteral, Value: s}
}

// ArtifactPath returns a fragment that expands to the artifact's exec path.
func ArtifactPath(a *Artifact) Fragment {
	return Fragment{Kind: FragmentArtifactPath, Artifact: a}
}

// Joined returns a fragment that joins the evaluated parts with sep
// into one argument.
func Joined(sep string, parts ...Fragment) Fragment {
	return Fragment{Kind: FragmentJoined, Parts: parts, Separator: sep}
}

// evaluate expands the fragment to a single argument.
func (f Fragment) evaluate() (string, error) {
	switch f.Kind {
	case FragmentLiteral:
		return f.Value, nil

	case FragmentArtifactPath:
		if f.Artifact == nil {
			return "", errors.New("artifact_path fragment has no artifact")
		}
		return f.Artifact.ExecPath, nil

	case FragmentJoined:
		parts := make([]string, 0, len(f.Parts))
		for i, p := range f.Parts {
			s, err := p.evaluate()
			if err != nil {
				return "", fmt.Errorf("joined fragment part %d: %w", i, err)
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, f.Separator), nil

	default:
		return "", fmt.Errorf("unknown fragment kind %q", f.Kind)
	}
}

// CommandLine is an ordered, immutable sequence of argument fragments.
// The zero value is an empty command line.
type CommandLine struct {
	fragments []Fragment
}

// NewCommandLine returns a command line over the given fragments.
// The fragment slice is copied; later mutation of the input does not
// affect the command line.
func NewCommandLine(fragments ...Fragment) CommandLine {
	own := make([]Fragment, len(fragments))
	copy(own, fragments)
	return CommandLine{fragments: own}
}

// CommandLineOf returns an all-literal command line, one fragment per
// argument.
func CommandLineOf(args ...string) CommandLine {
	fragments := make([]Fragment, 0, len(args))
	for _, arg := range args {
		fragments = append(fragments, Literal(arg))
	}
	return CommandLine{fragments: fragments}
}

// Len returns the fragment count.
func (c CommandLine) Len() int {
	return len(c.fragments)
}

// Empty reports whether the command line has no fragments.
func (c CommandLine) Empty() bool {
	return len(c.fragments) == 0
}

// Evaluate expands the fragments, in order, to the literal argument
// vector. Evaluation is pure and idempotent: the result depends only
// on the fragments and the artifacts they reference.
func (c CommandLine) Evaluate() ([]string, error) {
	args := make([]string, 0, len(c.fragments))
	for i, f := range c.fragments {
		s, err := f.evaluate()
		if err != nil {
			return nil, fmt.Errorf("fragment %d: %w", i, err)
		}
		args = append(args, s)
	}
	return args, nil
}

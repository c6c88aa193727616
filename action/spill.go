package action

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"

	"github.com/justapithecus/smelt/types"
)

// DefaultSpillThreshold is the minimum serialized segment length that
// triggers parameter-file spilling when the caller configures nothing.
const DefaultSpillThreshold = 32768

// firstParamFileIndex is the suffix of the first parameter file
// derived from a primary output ("output" spills to "output-2.params").
const firstParamFileIndex = 2

// segment pairs an appended command line with its spill configuration.
// A nil info means the segment is never spilled.
type segment struct {
	cl   types.CommandLine
	info *types.ParamFileInfo
}

// serializedLength estimates the segment's command-line footprint:
// each argument's length plus one separator byte.
func serializedLength(args []string) int {
	total := 0
	for _, arg := range args {
		total += len(arg) + 1
	}
	return total
}

// shouldSpill applies the threshold rule. A negative threshold
// disables spilling; an empty segment never spills.
func shouldSpill(args []string, info *types.ParamFileInfo, threshold int) bool {
	if info == nil || threshold < 0 || len(args) == 0 {
		return false
	}
	return serializedLength(args) >= threshold
}

// paramFilePath derives the exec path for the index-th parameter file
// of the given primary output: the output's base name suffixed with
// "-<index>.params", in the output's directory.
func paramFilePath(primary *types.Artifact, index int) string {
	return primary.SiblingPath(fmt.Sprintf("%s-%d.params", primary.Basename(), index))
}

// encodeParamFile serializes the arguments per the segment's content
// type (one argument per record) and encodes the result in its charset.
func encodeParamFile(args []string, info *types.ParamFileInfo) ([]byte, error) {
	var sb strings.Builder
	for _, arg := range args {
		switch info.Type {
		case types.ParamFileUnquoted:
			sb.WriteString(arg)
		case types.ParamFileShellQuoted:
			quoted, err := syntax.Quote(arg, syntax.LangBash)
			if err != nil {
				return nil, fmt.Errorf("cannot shell-quote argument %q: %w", arg, err)
			}
			sb.WriteString(quoted)
		default:
			return nil, fmt.Errorf("unsupported param file type %q", info.Type)
		}
		sb.WriteByte('\n')
	}

	content := sb.String()

	switch info.Charset {
	case "", types.CharsetUTF8:
		return []byte(content), nil
	case types.CharsetLatin1:
		encoded, err := charmap.ISO8859_1.NewEncoder().String(content)
		if err != nil {
			return nil, fmt.Errorf("cannot encode param file as ISO-8859-1: %w", err)
		}
		return []byte(encoded), nil
	default:
		return nil, fmt.Errorf("unsupported param file charset %q", info.Charset)
	}
}

// DecodeParamFile tokenizes parameter-file content back into the
// argument list: the inverse of the spill serialization, used by
// round-trip checks and inspection tooling.
func DecodeParamFile(contents []byte, info *types.ParamFileInfo) ([]string, error) {
	text := string(contents)
	if info.Charset == types.CharsetLatin1 {
		decoded, err := charmap.ISO8859_1.NewDecoder().String(text)
		if err != nil {
			return nil, fmt.Errorf("cannot decode ISO-8859-1 param file: %w", err)
		}
		text = decoded
	}

	switch info.Type {
	case types.ParamFileUnquoted:
		text = strings.TrimSuffix(text, "\n")
		if text == "" {
			return nil, nil
		}
		return strings.Split(text, "\n"), nil

	case types.ParamFileShellQuoted:
		// Quoted arguments may span lines, so the whole content is
		// tokenized at once; unquoted newlines separate words.
		return shellSplit(text)

	default:
		return nil, fmt.Errorf("unsupported param file type %q", info.Type)
	}
}

// shellSplit tokenizes shell-quoted content into its literal words.
func shellSplit(text string) ([]string, error) {
	parser := syntax.NewParser(syntax.Variant(syntax.LangBash))
	cfg := &expand.Config{
		Env: expand.FuncEnviron(func(string) string { return "" }),
	}

	var args []string
	var expandErr error
	err := parser.Words(strings.NewReader(text), func(w *syntax.Word) bool {
		lit, err := expand.Literal(cfg, w)
		if err != nil {
			expandErr = err
			return false
		}
		args = append(args, lit)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("cannot tokenize shell-quoted param file: %w", err)
	}
	if expandErr != nil {
		return nil, fmt.Errorf("cannot expand shell-quoted argument: %w", expandErr)
	}
	return args, nil
}

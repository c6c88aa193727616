package action

import (
	"bytes"
	"slices"
	"testing"

	"github.com/justapithecus/smelt/types"
)

func TestSerializedLength(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{name: "empty", args: nil, want: 0},
		{name: "single", args: []string{"-X"}, want: 3},
		{name: "several", args: []string{"ab", "c"}, want: 5},
		{name: "empty string arg still separated", args: []string{""}, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := serializedLength(tt.args); got != tt.want {
				t.Errorf("serializedLength(%v) = %d, want %d", tt.args, got, tt.want)
			}
		})
	}
}

func TestShouldSpill(t *testing.T) {
	info := &types.ParamFileInfo{Type: types.ParamFileUnquoted}
	args := []string{"abcd"} // serialized length 5

	tests := []struct {
		name      string
		args      []string
		info      *types.ParamFileInfo
		threshold int
		want      bool
	}{
		{name: "nil info never spills", args: args, info: nil, threshold: 0, want: false},
		{name: "negative threshold disables", args: args, info: info, threshold: -1, want: false},
		{name: "empty segment never spills", args: nil, info: info, threshold: 0, want: false},
		{name: "zero threshold forces", args: args, info: info, threshold: 0, want: true},
		{name: "at threshold", args: args, info: info, threshold: 5, want: true},
		{name: "below threshold", args: args, info: info, threshold: 6, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldSpill(tt.args, tt.info, tt.threshold); got != tt.want {
				t.Errorf("shouldSpill() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParamFilePath(t *testing.T) {
	tests := []struct {
		name    string
		primary *types.Artifact
		index   int
		want    string
	}{
		{name: "nested output", primary: types.DerivedArtifact("bin/output"), index: 2, want: "bin/output-2.params"},
		{name: "root output", primary: types.DerivedArtifact("output"), index: 2, want: "output-2.params"},
		{name: "third file", primary: types.DerivedArtifact("bin/output"), index: 3, want: "bin/output-3.params"},
		{name: "dotted name keeps extension", primary: types.DerivedArtifact("pkg/lib.jar"), index: 2, want: "pkg/lib.jar-2.params"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := paramFilePath(tt.primary, tt.index); got != tt.want {
				t.Errorf("paramFilePath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncodeParamFile_Unquoted(t *testing.T) {
	info := &types.ParamFileInfo{Type: types.ParamFileUnquoted}
	got, err := encodeParamFile([]string{"-X", "a b", ""}, info)
	if err != nil {
		t.Fatalf("encodeParamFile() error = %v", err)
	}
	want := []byte("-X\na b\n\n")
	if !bytes.Equal(got, want) {
		t.Errorf("encodeParamFile() = %q, want %q", got, want)
	}
}

func TestEncodeParamFile_Latin1(t *testing.T) {
	info := &types.ParamFileInfo{Type: types.ParamFileUnquoted, Charset: types.CharsetLatin1}
	got, err := encodeParamFile([]string{"café"}, info)
	if err != nil {
		t.Fatalf("encodeParamFile() error = %v", err)
	}
	want := []byte{'c', 'a', 'f', 0xe9, '\n'}
	if !bytes.Equal(got, want) {
		t.Errorf("encodeParamFile() = %v, want %v", got, want)
	}

	back, err := DecodeParamFile(got, info)
	if err != nil {
		t.Fatalf("DecodeParamFile() error = %v", err)
	}
	if !slices.Equal(back, []string{"café"}) {
		t.Errorf("DecodeParamFile() = %v, want [café]", back)
	}
}

func TestEncodeParamFile_Latin1Unmappable(t *testing.T) {
	info := &types.ParamFileInfo{Type: types.ParamFileUnquoted, Charset: types.CharsetLatin1}
	if _, err := encodeParamFile([]string{"日本"}, info); err == nil {
		t.Fatal("encodeParamFile() error = nil, want encoding error")
	}
}

func TestParamFile_RoundTrip(t *testing.T) {
	args := []string{
		"--flag=value",
		"a b c",
		"",
		"it's quoted",
		"$HOME stays literal",
		"multi\nline",
		`back\slash`,
	}

	tests := []struct {
		name string
		info *types.ParamFileInfo
	}{
		{name: "shell quoted utf8", info: &types.ParamFileInfo{Type: types.ParamFileShellQuoted}},
		{name: "shell quoted latin1", info: &types.ParamFileInfo{Type: types.ParamFileShellQuoted, Charset: types.CharsetLatin1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := encodeParamFile(args, tt.info)
			if err != nil {
				t.Fatalf("encodeParamFile() error = %v", err)
			}
			decoded, err := DecodeParamFile(encoded, tt.info)
			if err != nil {
				t.Fatalf("DecodeParamFile() error = %v", err)
			}
			if !slices.Equal(decoded, args) {
				t.Errorf("round trip = %#v, want %#v", decoded, args)
			}
		})
	}
}

func TestParamFile_RoundTripUnquoted(t *testing.T) {
	// Unquoted content is a plain line-per-argument format; arguments
	// with embedded newlines are out of scope for it.
	args := []string{"-X", "a b", "--out=bin/x"}
	info := &types.ParamFileInfo{Type: types.ParamFileUnquoted}

	encoded, err := encodeParamFile(args, info)
	if err != nil {
		t.Fatalf("encodeParamFile() error = %v", err)
	}
	decoded, err := DecodeParamFile(encoded, info)
	if err != nil {
		t.Fatalf("DecodeParamFile() error = %v", err)
	}
	if !slices.Equal(decoded, args) {
		t.Errorf("round trip = %v, want %v", decoded, args)
	}
}

func TestDecodeParamFile_Empty(t *testing.T) {
	info := &types.ParamFileInfo{Type: types.ParamFileUnquoted}
	got, err := DecodeParamFile(nil, info)
	if err != nil {
		t.Fatalf("DecodeParamFile() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("DecodeParamFile() = %v, want empty", got)
	}
}

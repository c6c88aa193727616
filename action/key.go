package action

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"sort"

	"github.com/justapithecus/smelt/types"
)

// fingerprint is a canonical SHA-256 accumulator. Every field is
// written length-prefixed (4-byte big-endian) so adjacent fields can
// never alias under concatenation.
type fingerprint struct {
	h hash.Hash
}

func newFingerprint() *fingerprint {
	return &fingerprint{h: sha256.New()}
}

func (f *fingerprint) writeString(s string) {
	var lengthBuf [4]byte
	binary.BigEndian.PutUint32(lengthBuf[:], uint32(len(s)))
	f.h.Write(lengthBuf[:])
	f.h.Write([]byte(s))
}

func (f *fingerprint) writeStrings(ss []string) {
	var countBuf [4]byte
	binary.BigEndian.PutUint32(countBuf[:], uint32(len(ss)))
	f.h.Write(countBuf[:])
	for _, s := range ss {
		f.writeString(s)
	}
}

func (f *fingerprint) sum() string {
	return hex.EncodeToString(f.h.Sum(nil))
}

// computeKey derives the action identity fingerprint. Fold order is
// fixed and part of the contract:
//
//  1. resolved executable representation (shape tag + its fields)
//  2. mnemonic
//  3. final post-spill argument vector (a spilled invocation keys
//     differently from an inlined one: the tool is invoked differently)
//  4. environment as an unordered set: (name, value) pairs folded in
//     name order
//  5. runfiles suppliers: each supplier digests to (dir, sorted
//     mappings, manifest identity); the per-supplier digests are
//     sorted before folding, so supplier order is invisible while any
//     directory or content change is not
//
// Progress messages and other logging-only metadata never enter the
// fingerprint.
func computeKey(exec *executableSpec, mnemonic string, args []string, env map[string]string, runfiles []types.RunfilesSupplier) string {
	fp := newFingerprint()

	exec.fold(fp)
	fp.writeString(mnemonic)
	fp.writeStrings(args)

	names := make([]string, 0, len(env))
	for name := range env {
		names = append(names, name)
	}
	sort.Strings(names)
	var countBuf [4]byte
	binary.BigEndian.PutUint32(countBuf[:], uint32(len(names)))
	fp.h.Write(countBuf[:])
	for _, name := range names {
		fp.writeString(name)
		fp.writeString(env[name])
	}

	digests := make([]string, 0, len(runfiles))
	for i := range runfiles {
		digests = append(digests, supplierDigest(&runfiles[i]))
	}
	sort.Strings(digests)
	fp.writeStrings(digests)

	return fp.sum()
}

// supplierDigest fingerprints one runfiles supplier: target directory,
// mappings in tree-path order, and the manifest artifact if any.
func supplierDigest(s *types.RunfilesSupplier) string {
	fp := newFingerprint()

	fp.writeString(s.Dir)

	rels := make([]string, 0, len(s.Mappings))
	for rel := range s.Mappings {
		rels = append(rels, rel)
	}
	sort.Strings(rels)
	var countBuf [4]byte
	binary.BigEndian.PutUint32(countBuf[:], uint32(len(rels)))
	fp.h.Write(countBuf[:])
	for _, rel := range rels {
		a := s.Mappings[rel]
		fp.writeString(rel)
		fp.writeString(a.ExecPath)
		fp.writeString(string(a.Kind))
	}

	if s.Manifest != nil {
		fp.writeString(s.Manifest.ExecPath)
	} else {
		fp.writeString("")
	}

	return fp.sum()
}

// fileWriteKey fingerprints a parameter-file write action: mnemonic,
// output path, and the encoded content.
func fileWriteKey(output *types.Artifact, contents []byte) string {
	fp := newFingerprint()
	fp.writeString(ParamFileWriteMnemonic)
	fp.writeString(output.ExecPath)
	fp.writeString(string(contents))
	return fp.sum()
}

package action

import (
	"errors"
	"fmt"

	"github.com/justapithecus/smelt/types"
)

// executableKind discriminates the three executable shapes.
type executableKind string

const (
	execKindPath     executableKind = "path"
	execKindArtifact executableKind = "artifact"
	execKindLauncher executableKind = "launcher"
)

// RuntimeLauncher describes a managed-runtime entry point: the runtime
// binary, the classpath archive holding the program, and the class to
// start.
type RuntimeLauncher struct {
	// RuntimePath is the path of the runtime binary.
	RuntimePath string
	// Classpath is the archive holding the entry point.
	Classpath *types.Artifact
	// MainClass is the fully qualified entry class.
	MainClass string
	// RuntimeArgs are runtime options placed before the classpath.
	RuntimeArgs []string
}

// executableSpec records which executable shapes the builder saw.
// Build requires exactly one distinct shape.
type executableSpec struct {
	kinds    []executableKind
	path     string
	artifact *types.Artifact
	launcher *RuntimeLauncher
}

// record notes that a shape was set, once per distinct kind. Setting
// the same shape again overwrites its value (last wins).
func (e *executableSpec) record(kind executableKind) {
	for _, k := range e.kinds {
		if k == kind {
			return
		}
	}
	e.kinds = append(e.kinds, kind)
}

// resolve normalizes the executable into the leading argument vector
// and the inputs it contributes. Exactly one shape must have been set.
func (e *executableSpec) resolve() ([]string, []*types.Artifact, error) {
	if len(e.kinds) == 0 {
		return nil, nil, errors.New("no executable specified")
	}
	if len(e.kinds) > 1 {
		return nil, nil, fmt.Errorf("executable specified %d times; path, artifact, and runtime launcher are mutually exclusive", len(e.kinds))
	}

	switch e.kinds[0] {
	case execKindPath:
		if e.path == "" {
			return nil, nil, errors.New("executable path must be non-empty")
		}
		return []string{e.path}, nil, nil

	case execKindArtifact:
		if e.artifact == nil {
			return nil, nil, errors.New("executable artifact must not be nil")
		}
		if err := e.artifact.Validate(); err != nil {
			return nil, nil, fmt.Errorf("executable artifact: %w", err)
		}
		return []string{e.artifact.ExecPath}, []*types.Artifact{e.artifact}, nil

	case execKindLauncher:
		l := e.launcher
		if l == nil || l.RuntimePath == "" {
			return nil, nil, errors.New("runtime launcher must name a runtime binary")
		}
		if l.Classpath == nil {
			return nil, nil, errors.New("runtime launcher must have a classpath artifact")
		}
		if err := l.Classpath.Validate(); err != nil {
			return nil, nil, fmt.Errorf("runtime launcher classpath: %w", err)
		}
		if l.MainClass == "" {
			return nil, nil, errors.New("runtime launcher must name a main class")
		}

		args := make([]string, 0, len(l.RuntimeArgs)+5)
		args = append(args, l.RuntimePath, "-Xverify:none")
		args = append(args, l.RuntimeArgs...)
		args = append(args, "-cp", l.Classpath.ExecPath, l.MainClass)
		return args, []*types.Artifact{l.Classpath}, nil

	default:
		return nil, nil, fmt.Errorf("unknown executable kind %q", e.kinds[0])
	}
}

// fold writes the executable representation into a fingerprint: the
// shape tag plus every field that selects what actually runs.
func (e *executableSpec) fold(fp *fingerprint) {
	if len(e.kinds) != 1 {
		// resolve rejects this before keys are computed
		return
	}

	kind := e.kinds[0]
	fp.writeString(string(kind))

	switch kind {
	case execKindPath:
		fp.writeString(e.path)
	case execKindArtifact:
		fp.writeString(e.artifact.ExecPath)
		fp.writeString(string(e.artifact.Kind))
	case execKindLauncher:
		fp.writeString(e.launcher.RuntimePath)
		fp.writeString(e.launcher.Classpath.ExecPath)
		fp.writeString(e.launcher.MainClass)
		fp.writeStrings(e.launcher.RuntimeArgs)
	}
}

package planfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/justapithecus/smelt/action"
	"github.com/justapithecus/smelt/metrics"
	"github.com/justapithecus/smelt/plan"
	"github.com/justapithecus/smelt/types"
)

// globPrefix marks an input entry as a doublestar pattern.
const globPrefix = "glob:"

// BuildOptions carries plan-wide construction settings.
type BuildOptions struct {
	// Workspace overrides the plan file's workspace when non-empty.
	Workspace string
	// Root is the directory glob: inputs resolve against. Empty means
	// the current directory.
	Root string
	// SpillThreshold overrides the builder default when non-nil.
	SpillThreshold *int
	// Metrics receives construction counters. nil disables counting.
	Metrics *metrics.Collector
}

// Build constructs a plan from a parsed plan file. Artifact kinds are
// classified in two passes: any path declared as an output of any
// action is derived, everything else is source. Construction stops at
// the first failing action.
func Build(f *File, opts BuildOptions) (*plan.Plan, error) {
	workspace := opts.Workspace
	if workspace == "" {
		workspace = f.Workspace
	}
	if workspace == "" {
		return nil, errors.New("workspace required: set it in the plan file or pass --workspace")
	}
	if len(f.Actions) == 0 {
		return nil, errors.New("plan file declares no actions")
	}

	arts := newArtifactSet(f)
	p := plan.New(workspace)

	for i := range f.Actions {
		spec := &f.Actions[i]
		actions, err := buildAction(spec, arts, opts)
		if err != nil {
			return nil, fmt.Errorf("action %d (%s): %w", i, actionName(spec), err)
		}
		if err := p.AddActions(actions...); err != nil {
			return nil, fmt.Errorf("action %d (%s): %w", i, actionName(spec), err)
		}
	}

	return p, nil
}

// actionName returns the most specific identifier available for error
// messages.
func actionName(spec *ActionSpec) string {
	if spec.Label != "" {
		return spec.Label
	}
	if spec.Mnemonic != "" {
		return spec.Mnemonic
	}
	return "unnamed"
}

func buildAction(spec *ActionSpec, arts *artifactSet, opts BuildOptions) ([]action.Action, error) {
	b := action.NewBuilder(types.Owner{
		Label:         spec.Label,
		Configuration: spec.Configuration,
	})

	if spec.Mnemonic != "" {
		b.SetMnemonic(spec.Mnemonic)
	}
	if spec.ProgressMessage != "" {
		b.SetProgressMessage(spec.ProgressMessage)
	}

	if spec.Executable != "" {
		b.SetExecutablePath(spec.Executable)
	}
	if spec.ExecutableArtifact != "" {
		b.SetExecutableArtifact(arts.ref(spec.ExecutableArtifact))
	}
	if l := spec.RuntimeLauncher; l != nil {
		b.SetRuntimeLauncher(action.RuntimeLauncher{
			RuntimePath: l.Runtime,
			Classpath:   arts.ref(l.Classpath),
			MainClass:   l.MainClass,
			RuntimeArgs: l.RuntimeArgs,
		})
	}
	if len(spec.ExecutableArgs) > 0 {
		b.AddExecutableArgs(spec.ExecutableArgs...)
	}

	if len(spec.Env) > 0 {
		b.SetEnv(spec.Env)
	}
	for key, value := range spec.ExecutionInfo {
		b.SetExecutionInfo(key, value)
	}
	if r := spec.Resources; r != nil {
		b.SetResources(types.ResourceSet{CPU: r.CPU, MemoryMB: r.MemoryMB})
	}

	inputs, err := expandInputs(spec.Inputs, opts.Root)
	if err != nil {
		return nil, err
	}
	for _, path := range inputs {
		b.AddInput(arts.ref(path))
	}
	for _, path := range spec.Outputs {
		b.AddOutput(arts.ref(path))
	}

	for _, seg := range spec.Segments {
		b.AddCommandLine(types.CommandLineOf(seg.Args...), paramFileInfo(seg.ParamFile))
	}

	for _, rf := range spec.Runfiles {
		supplier := types.RunfilesSupplier{Dir: rf.Dir}
		if len(rf.Mappings) > 0 {
			supplier.Mappings = make(map[string]*types.Artifact, len(rf.Mappings))
			for treePath, backing := range rf.Mappings {
				supplier.Mappings[treePath] = arts.ref(backing)
			}
		}
		if rf.Manifest != "" {
			supplier.Manifest = arts.ref(rf.Manifest)
		}
		b.AddRunfilesSupplier(supplier)
	}

	if spec.Aspect != nil {
		b.SetAspect(spec.Aspect.Name, spec.Aspect.Params)
	}

	if opts.SpillThreshold != nil {
		b.SetSpillThreshold(*opts.SpillThreshold)
	}
	if opts.Metrics != nil {
		b.SetMetrics(opts.Metrics)
	}

	return b.Build()
}

func paramFileInfo(spec *ParamFileSpec) *types.ParamFileInfo {
	if spec == nil {
		return nil
	}
	return &types.ParamFileInfo{
		Type:       types.ParamFileType(spec.Type),
		Charset:    types.ParamFileCharset(spec.Charset),
		FlagFormat: spec.FlagFormat,
	}
}

// expandInputs resolves glob: patterns against the workspace root and
// passes plain paths through untouched. Matches are sorted so input
// order, and therefore action keys, stay deterministic.
func expandInputs(inputs []string, root string) ([]string, error) {
	if root == "" {
		root = "."
	}

	var resolved []string
	for _, entry := range inputs {
		pattern, isGlob := strings.CutPrefix(entry, globPrefix)
		if !isGlob {
			resolved = append(resolved, entry)
			continue
		}

		fsys := os.DirFS(root)
		hits, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("expand input glob %q: %w", pattern, err)
		}

		files := make([]string, 0, len(hits))
		for _, hit := range hits {
			info, err := fs.Stat(fsys, hit)
			if err != nil || info.IsDir() {
				continue
			}
			files = append(files, hit)
		}
		sort.Strings(files)
		resolved = append(resolved, files...)
	}
	return resolved, nil
}

// artifactSet interns artifacts by exec path with kinds classified
// from the plan file's declared outputs.
type artifactSet struct {
	derived map[string]bool
	byPath  map[string]*types.Artifact
}

func newArtifactSet(f *File) *artifactSet {
	derived := make(map[string]bool)
	for i := range f.Actions {
		for _, out := range f.Actions[i].Outputs {
			derived[out] = true
		}
	}
	return &artifactSet{
		derived: derived,
		byPath:  make(map[string]*types.Artifact),
	}
}

// ref returns the shared artifact for an exec path, creating it with
// the classified kind on first use.
func (s *artifactSet) ref(execPath string) *types.Artifact {
	if a, ok := s.byPath[execPath]; ok {
		return a
	}
	var a *types.Artifact
	if s.derived[execPath] {
		a = types.DerivedArtifact(execPath)
	} else {
		a = types.SourceArtifact(execPath)
	}
	s.byPath[execPath] = a
	return a
}

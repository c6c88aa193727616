package action

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"

	"github.com/justapithecus/smelt/diag"
	"github.com/justapithecus/smelt/metrics"
	"github.com/justapithecus/smelt/types"
)

// Builder accumulates the declarative description of one spawn action
// and assembles it on Build. Setters are chainable and perform no
// validation; every structural rule is checked in Build so that a
// partially configured builder can be passed around freely.
//
// A builder is exclusively owned by its caller and is not safe for
// concurrent use. Build does not mutate the builder, so it may be
// called repeatedly; each call re-runs assembly from the recorded
// state.
type Builder struct {
	owner           types.Owner
	mnemonic        string
	progressMessage string
	exec            executableSpec
	execArgs        []string
	segments        []segment
	inputs          []*types.Artifact
	outputs         []*types.Artifact
	env             map[string]string
	execInfo        map[string]string
	resources       *types.ResourceSet
	runfiles        []types.RunfilesSupplier
	spillThreshold  int
	aspect          *diag.Aspect
	metrics         *metrics.Collector
}

// NewBuilder returns a builder for an action owned by the given rule.
func NewBuilder(owner types.Owner) *Builder {
	return &Builder{
		owner:          owner,
		spillThreshold: DefaultSpillThreshold,
	}
}

// SetMnemonic sets the action's classification label. An unset
// mnemonic defaults to types.DefaultMnemonic at build time.
func (b *Builder) SetMnemonic(mnemonic string) *Builder {
	b.mnemonic = mnemonic
	return b
}

// SetProgressMessage sets the human-readable progress line. It is
// display-only and never contributes to the action key.
func (b *Builder) SetProgressMessage(msg string) *Builder {
	b.progressMessage = msg
	return b
}

// SetExecutablePath declares the executable as a raw path, used
// verbatim as argv[0] with no input tracking.
func (b *Builder) SetExecutablePath(path string) *Builder {
	b.exec.record(execKindPath)
	b.exec.path = path
	return b
}

// SetExecutableArtifact declares the executable as a tracked artifact:
// its exec path becomes argv[0] and the artifact becomes an input.
func (b *Builder) SetExecutableArtifact(a *types.Artifact) *Builder {
	b.exec.record(execKindArtifact)
	b.exec.artifact = a
	return b
}

// SetRuntimeLauncher declares the executable as a managed-runtime
// invocation. Build expands it to the runtime's launch vector and
// registers the classpath artifact as an input.
func (b *Builder) SetRuntimeLauncher(l RuntimeLauncher) *Builder {
	b.exec.record(execKindLauncher)
	b.exec.launcher = &l
	return b
}

// AddExecutableArgs appends arguments that follow the executable
// prefix and precede every command-line segment. They are never
// spilled.
func (b *Builder) AddExecutableArgs(args ...string) *Builder {
	b.execArgs = append(b.execArgs, args...)
	return b
}

// AddArgs appends literal arguments as a non-spillable segment.
func (b *Builder) AddArgs(args ...string) *Builder {
	return b.AddCommandLine(types.CommandLineOf(args...), nil)
}

// AddCommandLine appends a command-line segment. A non-nil info makes
// the segment eligible for parameter-file spilling; segments are kept
// in insertion order and evaluated lazily at build time.
func (b *Builder) AddCommandLine(cl types.CommandLine, info *types.ParamFileInfo) *Builder {
	b.segments = append(b.segments, segment{cl: cl, info: info})
	return b
}

// AddInput declares one input artifact.
func (b *Builder) AddInput(a *types.Artifact) *Builder {
	b.inputs = append(b.inputs, a)
	return b
}

// AddInputs declares input artifacts in order.
func (b *Builder) AddInputs(as ...*types.Artifact) *Builder {
	b.inputs = append(b.inputs, as...)
	return b
}

// AddOutput declares one output artifact. The first declared output
// is the primary output, which anchors parameter-file naming.
func (b *Builder) AddOutput(a *types.Artifact) *Builder {
	b.outputs = append(b.outputs, a)
	return b
}

// AddOutputs declares output artifacts in order.
func (b *Builder) AddOutputs(as ...*types.Artifact) *Builder {
	b.outputs = append(b.outputs, as...)
	return b
}

// SetEnv replaces the action environment with a copy of env. Values
// pass through to the spawn verbatim; nothing is inherited from the
// construction process.
func (b *Builder) SetEnv(env map[string]string) *Builder {
	b.env = maps.Clone(env)
	return b
}

// SetEnvVar sets a single environment variable.
func (b *Builder) SetEnvVar(name, value string) *Builder {
	if b.env == nil {
		b.env = make(map[string]string)
	}
	b.env[name] = value
	return b
}

// SetExecutionInfo attaches one opaque execution hint, such as
// "local".
func (b *Builder) SetExecutionInfo(key, value string) *Builder {
	if b.execInfo == nil {
		b.execInfo = make(map[string]string)
	}
	b.execInfo[key] = value
	return b
}

// SetResources overrides the default resource reservation.
func (b *Builder) SetResources(r types.ResourceSet) *Builder {
	b.resources = &r
	return b
}

// AddRunfilesSupplier attaches one runfiles tree to the action.
func (b *Builder) AddRunfilesSupplier(s types.RunfilesSupplier) *Builder {
	b.runfiles = append(b.runfiles, s)
	return b
}

// SetSpillThreshold overrides the parameter-file threshold. Zero
// spills every eligible segment; a negative value disables spilling.
func (b *Builder) SetSpillThreshold(threshold int) *Builder {
	b.spillThreshold = threshold
	return b
}

// SetAspect tags the action with the policy aspect it originates
// from. The tag is carried into the descriptor and never interpreted.
func (b *Builder) SetAspect(name string, params map[string][]string) *Builder {
	b.aspect = &diag.Aspect{Name: name, Params: maps.Clone(params)}
	return b
}

// SetMetrics attaches a collector. A nil collector is valid and
// records nothing.
func (b *Builder) SetMetrics(c *metrics.Collector) *Builder {
	b.metrics = c
	return b
}

// Build assembles the recorded state into a primary spawn action plus
// one parameter-file write action per spilled segment, in spill
// order. The primary action is always the first element.
//
// Assembly is deterministic: segments are evaluated exactly once in
// insertion order, parameter files are numbered from 2 against the
// primary output's base name, and the action key covers the
// executable shape, mnemonic, final arguments, environment, and
// runfiles trees.
func (b *Builder) Build() ([]Action, error) {
	mnemonic := b.mnemonic
	if mnemonic == "" {
		mnemonic = types.DefaultMnemonic
	}
	if err := types.ValidateMnemonic(mnemonic); err != nil {
		return b.fail(fmt.Errorf("mnemonic: %w", err))
	}

	if len(b.outputs) == 0 {
		return b.fail(errors.New("action must declare at least one output"))
	}
	outputSet := make(map[string]struct{}, len(b.outputs))
	for _, out := range b.outputs {
		if out == nil {
			return b.fail(errors.New("output must not be nil"))
		}
		if err := out.Validate(); err != nil {
			return b.fail(fmt.Errorf("output: %w", err))
		}
		if out.Kind != types.ArtifactDerived {
			return b.fail(fmt.Errorf("output %q must be a derived artifact", out.ExecPath))
		}
		if _, dup := outputSet[out.ExecPath]; dup {
			return b.fail(fmt.Errorf("duplicate output %q", out.ExecPath))
		}
		outputSet[out.ExecPath] = struct{}{}
	}

	for i, s := range b.runfiles {
		if err := s.Validate(); err != nil {
			return b.fail(fmt.Errorf("runfiles supplier %d: %w", i, err))
		}
	}

	execPrefix, execInputs, err := b.exec.resolve()
	if err != nil {
		return b.fail(fmt.Errorf("executable: %w", err))
	}

	spawnArgs := make([]string, 0, len(execPrefix)+len(b.execArgs))
	spawnArgs = append(spawnArgs, execPrefix...)
	spawnArgs = append(spawnArgs, b.execArgs...)

	primaryOut := b.outputs[0]
	var writers []*FileWriteAction
	var paramArtifacts []*types.Artifact
	nextIndex := firstParamFileIndex
	for i, seg := range b.segments {
		if seg.info != nil {
			if err := seg.info.Validate(); err != nil {
				return b.fail(fmt.Errorf("segment %d param file: %w", i, err))
			}
		}
		args, err := seg.cl.Evaluate()
		if err != nil {
			return b.fail(fmt.Errorf("segment %d: %w", i, err))
		}
		if !shouldSpill(args, seg.info, b.spillThreshold) {
			spawnArgs = append(spawnArgs, args...)
			b.metrics.IncSegmentsInlined()
			continue
		}

		execPath := paramFilePath(primaryOut, nextIndex)
		nextIndex++
		if _, clash := outputSet[execPath]; clash {
			return b.fail(fmt.Errorf("parameter file %q collides with a declared output", execPath))
		}

		contents, err := encodeParamFile(args, seg.info)
		if err != nil {
			return b.fail(fmt.Errorf("segment %d: %w", i, err))
		}
		ref, err := seg.info.FormatRef(execPath)
		if err != nil {
			return b.fail(fmt.Errorf("segment %d: %w", i, err))
		}

		paramFile := types.DerivedArtifact(execPath)
		writers = append(writers, &FileWriteAction{
			owner:    b.owner,
			output:   paramFile,
			contents: contents,
			key:      fileWriteKey(paramFile, contents),
		})
		b.metrics.IncKeysComputed()
		paramArtifacts = append(paramArtifacts, paramFile)
		spawnArgs = append(spawnArgs, ref)
		b.metrics.IncSegmentsSpilled(mnemonic)
	}

	actionInputs, manifestPaths, err := b.collectInputs(execInputs, paramArtifacts)
	if err != nil {
		return b.fail(err)
	}
	for _, a := range actionInputs {
		if _, clash := outputSet[a.ExecPath]; clash {
			return b.fail(fmt.Errorf("artifact %q is both an input and an output", a.ExecPath))
		}
	}

	// Manifests stay in the action's inputs but are stripped from the
	// spawn's file list; the executor materializes those trees from
	// the manifests themselves.
	spawnFiles := make([]*types.Artifact, 0, len(actionInputs))
	for _, a := range actionInputs {
		if _, isManifest := manifestPaths[a.ExecPath]; isManifest {
			continue
		}
		spawnFiles = append(spawnFiles, a)
	}

	resources := types.DefaultResourceSet
	if b.resources != nil {
		resources = *b.resources
	}

	key := computeKey(&b.exec, mnemonic, spawnArgs, b.env, b.runfiles)
	b.metrics.IncKeysComputed()

	outputs := slices.Clone(b.outputs)
	spawn := &types.Spawn{
		Args:          spawnArgs,
		Env:           maps.Clone(b.env),
		Inputs:        spawnFiles,
		Outputs:       outputs,
		Resources:     resources,
		ExecutionInfo: maps.Clone(b.execInfo),
	}

	descriptor := &diag.Descriptor{
		Mnemonic:    mnemonic,
		OwnerLabel:  b.owner.Label,
		ActionKey:   key,
		Args:        spawnArgs,
		InputPaths:  execPaths(actionInputs),
		OutputPaths: execPaths(outputs),
		Env:         diag.EnvEntries(b.env),
		Aspect:      b.aspect,
	}

	primary := &SpawnAction{
		owner:           b.owner,
		mnemonic:        mnemonic,
		progressMessage: b.progressMessage,
		spawn:           spawn,
		inputs:          actionInputs,
		outputs:         outputs,
		runfiles:        slices.Clone(b.runfiles),
		key:             key,
		descriptor:      descriptor,
	}

	result := make([]Action, 0, 1+len(writers))
	result = append(result, primary)
	for _, w := range writers {
		result = append(result, w)
	}
	for range result {
		b.metrics.IncActionsBuilt()
	}
	return result, nil
}

// collectInputs gathers the action's inputs in a stable order:
// executable inputs, declared inputs, parameter files, then runfiles
// artifacts per supplier with mappings sorted by tree-relative path.
// Duplicates by exec path are dropped, first occurrence wins. The
// returned set holds the exec paths of all supplier manifests.
func (b *Builder) collectInputs(execInputs, paramArtifacts []*types.Artifact) ([]*types.Artifact, map[string]struct{}, error) {
	seen := make(map[string]struct{})
	var inputs []*types.Artifact
	add := func(a *types.Artifact) error {
		if a == nil {
			return errors.New("input must not be nil")
		}
		if err := a.Validate(); err != nil {
			return fmt.Errorf("input: %w", err)
		}
		if _, dup := seen[a.ExecPath]; dup {
			return nil
		}
		seen[a.ExecPath] = struct{}{}
		inputs = append(inputs, a)
		return nil
	}

	for _, a := range execInputs {
		if err := add(a); err != nil {
			return nil, nil, err
		}
	}
	for _, a := range b.inputs {
		if err := add(a); err != nil {
			return nil, nil, err
		}
	}
	for _, a := range paramArtifacts {
		if err := add(a); err != nil {
			return nil, nil, err
		}
	}

	manifestPaths := make(map[string]struct{})
	for _, s := range b.runfiles {
		rels := make([]string, 0, len(s.Mappings))
		for rel := range s.Mappings {
			rels = append(rels, rel)
		}
		sort.Strings(rels)
		for _, rel := range rels {
			if err := add(s.Mappings[rel]); err != nil {
				return nil, nil, err
			}
		}
		if s.Manifest != nil {
			manifestPaths[s.Manifest.ExecPath] = struct{}{}
			if err := add(s.Manifest); err != nil {
				return nil, nil, err
			}
		}
	}
	return inputs, manifestPaths, nil
}

// fail records a validation failure and returns the error unchanged.
func (b *Builder) fail(err error) ([]Action, error) {
	b.metrics.IncValidationFailures()
	return nil, err
}

func execPaths(as []*types.Artifact) []string {
	paths := make([]string, 0, len(as))
	for _, a := range as {
		paths = append(paths, a.ExecPath)
	}
	return paths
}

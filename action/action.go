// Package action implements action construction per CONTRACT_ACTION.md:
// executable resolution, command-line assembly, parameter-file
// spilling, and identity key computation.
//
// Construction is pure and synchronous. A Builder is exclusively owned
// by its caller; Build performs no I/O and touches no shared state, so
// independent builders are safe to run concurrently without locking.
// Executing the resulting spawns is the scheduler/executor's job and is
// outside this package.
package action

import (
	"github.com/justapithecus/smelt/diag"
	"github.com/justapithecus/smelt/types"
)

// ParamFileWriteMnemonic is the mnemonic of synthesized parameter-file
// write actions.
const ParamFileWriteMnemonic = "ParameterFileWrite"

// Action is one unit of build work: declared inputs, declared outputs,
// and a deterministic identity key.
type Action interface {
	// Mnemonic returns the action's classification label.
	Mnemonic() string
	// Owner returns the requesting rule's identity.
	Owner() types.Owner
	// Inputs returns the declared input artifacts.
	Inputs() []*types.Artifact
	// Outputs returns the declared output artifacts.
	Outputs() []*types.Artifact
	// Key returns the identity fingerprint, hex encoded. Two actions
	// with equal keys are interchangeable for caching.
	Key() string
}

// SpawnAction is the primary action produced by a Builder: a fully
// resolved Spawn plus the metadata around it.
type SpawnAction struct {
	owner           types.Owner
	mnemonic        string
	progressMessage string
	spawn           *types.Spawn
	inputs          []*types.Artifact
	outputs         []*types.Artifact
	runfiles        []types.RunfilesSupplier
	key             string
	descriptor      *diag.Descriptor
}

var _ Action = (*SpawnAction)(nil)

// Mnemonic returns the action's classification label.
func (a *SpawnAction) Mnemonic() string { return a.mnemonic }

// Owner returns the requesting rule's identity.
func (a *SpawnAction) Owner() types.Owner { return a.owner }

// Inputs returns the declared inputs, including spilled parameter
// files and runfiles manifest artifacts.
func (a *SpawnAction) Inputs() []*types.Artifact { return a.inputs }

// Outputs returns the declared outputs.
func (a *SpawnAction) Outputs() []*types.Artifact { return a.outputs }

// Key returns the identity fingerprint.
func (a *SpawnAction) Key() string { return a.key }

// ProgressMessage returns the human-readable progress message. It is
// excluded from the key.
func (a *SpawnAction) ProgressMessage() string { return a.progressMessage }

// Spawn returns the executable unit. The spawn's input files exclude
// manifest artifacts contributed by runfiles suppliers.
func (a *SpawnAction) Spawn() *types.Spawn { return a.spawn }

// RunfilesSuppliers returns the attached runfiles suppliers.
func (a *SpawnAction) RunfilesSuppliers() []types.RunfilesSupplier { return a.runfiles }

// Descriptor returns the diagnostic descriptor for export.
func (a *SpawnAction) Descriptor() *diag.Descriptor { return a.descriptor }

// FileWriteAction materializes one parameter file. It has no inputs
// and exactly one output; the content is fixed at construction and
// already encoded in the parameter file's charset.
type FileWriteAction struct {
	owner    types.Owner
	output   *types.Artifact
	contents []byte
	key      string
}

var _ Action = (*FileWriteAction)(nil)

// Mnemonic returns ParamFileWriteMnemonic.
func (a *FileWriteAction) Mnemonic() string { return ParamFileWriteMnemonic }

// Owner returns the requesting rule's identity.
func (a *FileWriteAction) Owner() types.Owner { return a.owner }

// Inputs returns nil: write actions depend on nothing.
func (a *FileWriteAction) Inputs() []*types.Artifact { return nil }

// Outputs returns the single parameter-file artifact.
func (a *FileWriteAction) Outputs() []*types.Artifact {
	return []*types.Artifact{a.output}
}

// Key returns the identity fingerprint.
func (a *FileWriteAction) Key() string { return a.key }

// Contents returns the encoded file content.
func (a *FileWriteAction) Contents() []byte { return a.contents }

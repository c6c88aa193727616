// Package planfile loads YAML plan descriptions and builds them into
// action plans.
//
// A plan file names a workspace and a list of action specs. Each spec
// carries everything action construction needs: mnemonic, owner
// label, exactly one executable form, argument segments with optional
// parameter-file settings, inputs, outputs, env, and optional
// runfiles and aspect attribution. The loader stays declarative; all
// semantic validation happens in the action builder.
package planfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the top-level plan file schema.
type File struct {
	Workspace string       `yaml:"workspace"`
	Actions   []ActionSpec `yaml:"actions"`
}

// ActionSpec describes one action set to construct. Exactly one of
// Executable, ExecutableArtifact, or RuntimeLauncher must be set.
type ActionSpec struct {
	Mnemonic        string `yaml:"mnemonic"`
	Label           string `yaml:"label"`
	Configuration   string `yaml:"configuration,omitempty"`
	ProgressMessage string `yaml:"progress_message,omitempty"`

	// Executable is a tool path outside the artifact graph, e.g.
	// /usr/bin/cc.
	Executable string `yaml:"executable,omitempty"`
	// ExecutableArtifact is a workspace file used as the executable.
	// It becomes an action input.
	ExecutableArtifact string `yaml:"executable_artifact,omitempty"`
	// RuntimeLauncher launches the executable through a runtime
	// binary and classpath archive.
	RuntimeLauncher *LauncherSpec `yaml:"runtime_launcher,omitempty"`
	// ExecutableArgs follow the executable before any segment args.
	ExecutableArgs []string `yaml:"executable_args,omitempty"`

	Env           map[string]string `yaml:"env,omitempty"`
	ExecutionInfo map[string]string `yaml:"execution_info,omitempty"`
	Resources     *ResourcesSpec    `yaml:"resources,omitempty"`

	// Inputs are exec paths, or doublestar patterns prefixed with
	// "glob:" resolved against the workspace root.
	Inputs   []string       `yaml:"inputs,omitempty"`
	Outputs  []string       `yaml:"outputs"`
	Segments []SegmentSpec  `yaml:"segments,omitempty"`
	Runfiles []RunfilesSpec `yaml:"runfiles,omitempty"`
	Aspect   *AspectSpec    `yaml:"aspect,omitempty"`
}

// LauncherSpec describes a runtime-launched executable.
type LauncherSpec struct {
	Runtime     string   `yaml:"runtime"`
	Classpath   string   `yaml:"classpath"`
	MainClass   string   `yaml:"main_class"`
	RuntimeArgs []string `yaml:"runtime_args,omitempty"`
}

// ResourcesSpec overrides the default resource reservation.
type ResourcesSpec struct {
	CPU      float64 `yaml:"cpu"`
	MemoryMB float64 `yaml:"memory_mb"`
}

// SegmentSpec is one ordered argument segment. A segment with a
// param_file block is eligible for spilling.
type SegmentSpec struct {
	Args      []string       `yaml:"args"`
	ParamFile *ParamFileSpec `yaml:"param_file,omitempty"`
}

// ParamFileSpec configures spilling for a segment.
type ParamFileSpec struct {
	Type       string `yaml:"type"`
	Charset    string `yaml:"charset,omitempty"`
	FlagFormat string `yaml:"flag_format,omitempty"`
}

// RunfilesSpec describes one runfiles tree supplier.
type RunfilesSpec struct {
	Dir      string            `yaml:"dir"`
	Mappings map[string]string `yaml:"mappings,omitempty"`
	Manifest string            `yaml:"manifest,omitempty"`
}

// AspectSpec attributes an action to a policy aspect.
type AspectSpec struct {
	Name   string              `yaml:"name"`
	Params map[string][]string `yaml:"params,omitempty"`
}

// Parse decodes plan file content. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("plan file is empty")
		}
		return nil, err
	}
	return &f, nil
}

// Load reads and parses a plan file. Errors carry the file path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("plan file not found: %s", path)
		}
		return nil, fmt.Errorf("cannot read plan file %q: %w", path, err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid plan file %s: %w", path, err)
	}
	return f, nil
}

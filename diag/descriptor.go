// Package diag defines the diagnostic descriptor exported for every
// constructed action, and the framing used to transport descriptor
// streams per CONTRACT_EXPORT.md.
//
// Descriptors are flat: string lists and (name, value) records only,
// no nested structures. External consumers depend on this shape.
package diag

import (
	"sort"
)

// DescriptorKind is the kind discriminant for descriptor frames.
const DescriptorKind = "action_descriptor"

// EnvEntry is one environment variable record.
type EnvEntry struct {
	// Name is the variable name.
	Name string `msgpack:"name"`
	// Value is the verbatim value, possibly empty.
	Value string `msgpack:"value"`
}

// Aspect names the policy aspect an action originated from. Attached
// opaquely at construction; the core never interprets it.
type Aspect struct {
	// Name is the aspect name.
	Name string `msgpack:"name"`
	// Params are the aspect's string-valued parameters.
	Params map[string][]string `msgpack:"params,omitempty"`
}

// Descriptor summarizes one constructed action for external tooling.
// It is never consulted for execution.
type Descriptor struct {
	// Mnemonic is the action's classification label.
	Mnemonic string `msgpack:"mnemonic"`
	// OwnerLabel identifies the requesting rule.
	OwnerLabel string `msgpack:"owner_label"`
	// ActionKey is the action's identity fingerprint, hex encoded.
	ActionKey string `msgpack:"action_key"`
	// Args is the final post-spill argument vector.
	Args []string `msgpack:"args"`
	// InputPaths lists declared input exec paths.
	InputPaths []string `msgpack:"input_paths"`
	// OutputPaths lists declared output exec paths.
	OutputPaths []string `msgpack:"output_paths"`
	// Env lists environment entries sorted by name.
	Env []EnvEntry `msgpack:"env"`
	// Aspect is present when the action originates from an aspect.
	Aspect *Aspect `msgpack:"aspect,omitempty"`
}

// Envelope wraps a descriptor for transport. Stream-level metadata
// lives here, not on the descriptor itself.
type Envelope struct {
	// ContractVersion is the descriptor contract version.
	ContractVersion string `msgpack:"contract_version"`
	// PlanID is the plan the action belongs to.
	PlanID string `msgpack:"plan_id"`
	// Seq is the 1-based position of the action within the plan.
	Seq int64 `msgpack:"seq"`
	// Kind is always DescriptorKind for descriptor frames.
	Kind string `msgpack:"kind"`
	// Ts is the export timestamp in ISO 8601 UTC format.
	Ts string `msgpack:"ts"`
	// Descriptor is the payload.
	Descriptor *Descriptor `msgpack:"descriptor"`
}

// EnvEntries converts an environment map to sorted records.
func EnvEntries(env map[string]string) []EnvEntry {
	entries := make([]EnvEntry, 0, len(env))
	for name, value := range env {
		entries = append(entries, EnvEntry{Name: name, Value: value})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries
}

// SortedParams returns the aspect's parameter keys in sorted order.
// Rendering and fingerprint-free comparisons use this to stay
// deterministic.
func (a *Aspect) SortedParams() []string {
	keys := make([]string, 0, len(a.Params))
	for k := range a.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

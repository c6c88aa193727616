// Package reader provides the read-side data access layer for the
// smelt CLI.
//
// All read-only commands go through this package: it opens exported
// descriptor streams, resolves plan references, and shapes the data
// into view types the render layer understands. Table headers come
// from the json tags, so the field names here are the CLI's output
// contract.
package reader

// PlanRow is one row in `smelt list plans`.
type PlanRow struct {
	PlanID      string `json:"plan_id"`
	Workspace   string `json:"workspace"`
	Day         string `json:"day"`
	Descriptors int64  `json:"descriptors"`
	Bytes       int64  `json:"bytes"`
	CompletedAt string `json:"completed_at"`
}

// ActionRow is one row in `smelt list actions`. List rows are thin;
// the deep view belongs to inspect.
type ActionRow struct {
	Seq      int64  `json:"seq"`
	Mnemonic string `json:"mnemonic"`
	Label    string `json:"label"`
	Key      string `json:"key"`
	Outputs  int    `json:"outputs"`
}

// KeyRow is one row in `smelt keys`: the identity table of a plan.
type KeyRow struct {
	Seq      int64  `json:"seq"`
	Mnemonic string `json:"mnemonic"`
	Label    string `json:"label"`
	Key      string `json:"key"`
}

// EnvView is one environment entry of an inspected action.
type EnvView struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// AspectView is the aspect attribution of an inspected action.
type AspectView struct {
	Name   string   `json:"name"`
	Params []string `json:"params,omitempty"`
}

// ActionView is the deep view of a single action returned by
// `smelt inspect action`.
type ActionView struct {
	Seq        int64       `json:"seq"`
	PlanID     string      `json:"plan_id"`
	Mnemonic   string      `json:"mnemonic"`
	Label      string      `json:"label"`
	Key        string      `json:"key"`
	Args       []string    `json:"args"`
	Env        []EnvView   `json:"env,omitempty"`
	Inputs     []string    `json:"inputs,omitempty"`
	Outputs    []string    `json:"outputs"`
	ParamFiles []string    `json:"param_files,omitempty"`
	Aspect     *AspectView `json:"aspect,omitempty"`
}

// StatsView is the aggregate view of one exported plan.
type StatsView struct {
	PlanID      string           `json:"plan_id"`
	Workspace   string           `json:"workspace"`
	Day         string           `json:"day"`
	CompletedAt string           `json:"completed_at"`
	Descriptors int64            `json:"descriptors"`
	Spawns      int64            `json:"spawns"`
	ParamFiles  int64            `json:"param_files"`
	Outputs     int64            `json:"outputs"`
	Skipped     int              `json:"skipped"`
	Bytes       int64            `json:"bytes"`
	Flushes     int64            `json:"flushes"`
	ByMnemonic  map[string]int64 `json:"by_mnemonic"`
}

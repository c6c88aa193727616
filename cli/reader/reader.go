package reader

import (
	"context"
	"fmt"
	"strings"

	"github.com/justapithecus/smelt/action"
	"github.com/justapithecus/smelt/diag"
	"github.com/justapithecus/smelt/sink"
)

// Source reads exported plans from a descriptor store. All methods
// are read-only.
type Source struct {
	reader *sink.Reader
}

// NewSource creates a source over a descriptor store.
func NewSource(store sink.Store) *Source {
	return &Source{reader: sink.NewReader(store)}
}

// ResolvePlan finds the layout for a plan ID within a workspace. An
// empty planID resolves to the latest completed plan.
func (s *Source) ResolvePlan(ctx context.Context, workspace, planID string) (sink.Layout, error) {
	if planID == "" {
		layout, _, err := sink.FindLatestPlan(ctx, s.reader, workspace)
		return layout, err
	}

	layouts, err := s.reader.ListPlans(ctx, workspace)
	if err != nil {
		return sink.Layout{}, err
	}
	for _, layout := range layouts {
		if layout.PlanID == planID {
			return layout, nil
		}
	}
	return sink.Layout{}, fmt.Errorf("plan %s not found", planID)
}

// ListPlans returns one row per completed plan export in store
// listing order.
func (s *Source) ListPlans(ctx context.Context, workspace string) ([]PlanRow, error) {
	layouts, err := s.reader.ListPlans(ctx, workspace)
	if err != nil {
		return nil, err
	}

	rows := make([]PlanRow, 0, len(layouts))
	for _, layout := range layouts {
		manifest, err := s.reader.ReadManifest(ctx, layout)
		if err != nil {
			// A manifest that exists in the listing but cannot be read
			// is a store-side problem worth surfacing, not skipping.
			return nil, err
		}
		rows = append(rows, PlanRow{
			PlanID:      layout.PlanID,
			Workspace:   layout.Workspace,
			Day:         layout.Day,
			Descriptors: manifest.Descriptors,
			Bytes:       manifest.Bytes,
			CompletedAt: manifest.CompletedAt,
		})
	}
	return rows, nil
}

// ListActions returns thin rows for every descriptor in a plan.
func (s *Source) ListActions(ctx context.Context, layout sink.Layout) ([]ActionRow, error) {
	envelopes, _, err := s.reader.ReadDescriptors(ctx, layout)
	if err != nil {
		return nil, err
	}

	rows := make([]ActionRow, 0, len(envelopes))
	for _, env := range envelopes {
		if env.Descriptor == nil {
			continue
		}
		rows = append(rows, ActionRow{
			Seq:      env.Seq,
			Mnemonic: env.Descriptor.Mnemonic,
			Label:    env.Descriptor.OwnerLabel,
			Key:      shortKey(env.Descriptor.ActionKey),
			Outputs:  len(env.Descriptor.OutputPaths),
		})
	}
	return rows, nil
}

// Keys returns the full mnemonic-to-key identity table of a plan.
func (s *Source) Keys(ctx context.Context, layout sink.Layout) ([]KeyRow, error) {
	envelopes, _, err := s.reader.ReadDescriptors(ctx, layout)
	if err != nil {
		return nil, err
	}

	rows := make([]KeyRow, 0, len(envelopes))
	for _, env := range envelopes {
		if env.Descriptor == nil {
			continue
		}
		rows = append(rows, KeyRow{
			Seq:      env.Seq,
			Mnemonic: env.Descriptor.Mnemonic,
			Label:    env.Descriptor.OwnerLabel,
			Key:      env.Descriptor.ActionKey,
		})
	}
	return rows, nil
}

// InspectAction finds a single action by reference and returns its
// deep view. A reference matches by exact action key, unique key
// prefix, or unique owner label.
func (s *Source) InspectAction(ctx context.Context, layout sink.Layout, ref string) (*ActionView, error) {
	envelopes, _, err := s.reader.ReadDescriptors(ctx, layout)
	if err != nil {
		return nil, err
	}

	match, err := findDescriptor(envelopes, ref)
	if err != nil {
		return nil, err
	}

	view := &ActionView{
		Seq:        match.Seq,
		PlanID:     match.PlanID,
		Mnemonic:   match.Descriptor.Mnemonic,
		Label:      match.Descriptor.OwnerLabel,
		Key:        match.Descriptor.ActionKey,
		Args:       match.Descriptor.Args,
		Inputs:     match.Descriptor.InputPaths,
		Outputs:    match.Descriptor.OutputPaths,
		ParamFiles: paramFilesOf(match.Descriptor, envelopes),
	}
	for _, e := range match.Descriptor.Env {
		view.Env = append(view.Env, EnvView{Name: e.Name, Value: e.Value})
	}
	if a := match.Descriptor.Aspect; a != nil {
		view.Aspect = &AspectView{Name: a.Name, Params: a.SortedParams()}
	}
	return view, nil
}

// PlanStats aggregates a plan's descriptors into a stats view.
func (s *Source) PlanStats(ctx context.Context, layout sink.Layout) (*StatsView, error) {
	manifest, err := s.reader.ReadManifest(ctx, layout)
	if err != nil {
		return nil, err
	}
	envelopes, skipped, err := s.reader.ReadDescriptors(ctx, layout)
	if err != nil {
		return nil, err
	}

	summary := sink.SummarizeDescriptors(envelopes, skipped)
	paramFiles := summary.ByMnemonic[action.ParamFileWriteMnemonic]

	return &StatsView{
		PlanID:      layout.PlanID,
		Workspace:   layout.Workspace,
		Day:         layout.Day,
		CompletedAt: manifest.CompletedAt,
		Descriptors: summary.Descriptors,
		Spawns:      summary.Descriptors - paramFiles,
		ParamFiles:  paramFiles,
		Outputs:     summary.Outputs,
		Skipped:     summary.Skipped,
		Bytes:       manifest.Bytes,
		Flushes:     manifest.Flushes,
		ByMnemonic:  summary.ByMnemonic,
	}, nil
}

// findDescriptor resolves an action reference against a plan's
// envelopes. Ambiguous references fail rather than guessing.
func findDescriptor(envelopes []*diag.Envelope, ref string) (*diag.Envelope, error) {
	if ref == "" {
		return nil, fmt.Errorf("action reference required: pass a key, key prefix, or label")
	}

	var matches []*diag.Envelope
	for _, env := range envelopes {
		if env.Descriptor == nil {
			continue
		}
		if env.Descriptor.ActionKey == ref {
			return env, nil
		}
		if strings.HasPrefix(env.Descriptor.ActionKey, ref) || env.Descriptor.OwnerLabel == ref {
			matches = append(matches, env)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no action matches %q", ref)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%q is ambiguous: %d actions match; use a longer key prefix", ref, len(matches))
	}
}

// paramFilesOf lists the parameter files spilled for a primary
// action: outputs of sibling writer descriptors that appear among the
// action's inputs.
func paramFilesOf(d *diag.Descriptor, envelopes []*diag.Envelope) []string {
	if d.Mnemonic == action.ParamFileWriteMnemonic {
		return nil
	}

	inputs := make(map[string]bool, len(d.InputPaths))
	for _, p := range d.InputPaths {
		inputs[p] = true
	}

	var files []string
	for _, env := range envelopes {
		w := env.Descriptor
		if w == nil || w.Mnemonic != action.ParamFileWriteMnemonic {
			continue
		}
		for _, out := range w.OutputPaths {
			if inputs[out] {
				files = append(files, out)
			}
		}
	}
	return files
}

// shortKey truncates an action key for list rows.
func shortKey(key string) string {
	if len(key) <= 12 {
		return key
	}
	return key[:12]
}

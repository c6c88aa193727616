package reader

import (
	"context"
	"strings"
	"testing"

	"github.com/justapithecus/smelt/action"
	"github.com/justapithecus/smelt/sink"
	"github.com/justapithecus/smelt/types"
)

// exportFixture writes one completed plan into the store: a Compile
// action, a Link action with an aspect, and a forced param-file spill
// on the Link.
func exportFixture(t *testing.T, store sink.Store, workspace, planID string) {
	t.Helper()

	layout := sink.Layout{Workspace: workspace, Day: "2026-03-15", PlanID: planID}
	exporter, err := sink.NewExporter(store, layout, sink.ExporterConfig{})
	if err != nil {
		t.Fatalf("NewExporter: %v", err)
	}

	compile, err := action.NewBuilder(types.Owner{Label: "//pkg:lib"}).
		SetMnemonic("Compile").
		SetExecutablePath("/usr/bin/cc").
		AddInput(types.SourceArtifact("src/lib.c")).
		AddOutput(types.DerivedArtifact("out/lib.o")).
		AddCommandLine(types.CommandLineOf("-c", "src/lib.c"), nil).
		Build()
	if err != nil {
		t.Fatalf("build compile: %v", err)
	}

	link, err := action.NewBuilder(types.Owner{Label: "//pkg:bin"}).
		SetMnemonic("Link").
		SetExecutablePath("/usr/bin/ld").
		AddOutput(types.DerivedArtifact("out/bin")).
		AddCommandLine(types.CommandLineOf("-lfoo", "-lbar"), &types.ParamFileInfo{Type: types.ParamFileUnquoted}).
		SetSpillThreshold(0).
		SetEnv(map[string]string{"LANG": "C"}).
		SetAspect("lint", map[string][]string{"level": {"strict"}}).
		Build()
	if err != nil {
		t.Fatalf("build link: %v", err)
	}

	ctx := context.Background()
	for _, a := range append(compile, link...) {
		if err := exporter.Export(ctx, sink.DescriptorOf(a)); err != nil {
			t.Fatalf("export: %v", err)
		}
	}
	if err := exporter.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func fixtureSource(t *testing.T) *Source {
	t.Helper()
	store := sink.NewStubStore()
	exportFixture(t, store, "acme", "plan-1")
	return NewSource(store)
}

func TestResolvePlan_Explicit(t *testing.T) {
	src := fixtureSource(t)

	layout, err := src.ResolvePlan(context.Background(), "acme", "plan-1")
	if err != nil {
		t.Fatalf("ResolvePlan: %v", err)
	}
	if layout.PlanID != "plan-1" || layout.Workspace != "acme" {
		t.Errorf("layout: got %+v", layout)
	}
}

func TestResolvePlan_LatestWhenEmpty(t *testing.T) {
	src := fixtureSource(t)

	layout, err := src.ResolvePlan(context.Background(), "acme", "")
	if err != nil {
		t.Fatalf("ResolvePlan: %v", err)
	}
	if layout.PlanID != "plan-1" {
		t.Errorf("expected latest plan plan-1, got %q", layout.PlanID)
	}
}

func TestResolvePlan_NotFound(t *testing.T) {
	src := fixtureSource(t)

	_, err := src.ResolvePlan(context.Background(), "acme", "no-such-plan")
	if err == nil {
		t.Fatal("expected error for unknown plan")
	}
	if !strings.Contains(err.Error(), "no-such-plan") {
		t.Errorf("error should name the plan, got: %v", err)
	}
}

func TestListPlans(t *testing.T) {
	store := sink.NewStubStore()
	exportFixture(t, store, "acme", "plan-1")
	exportFixture(t, store, "acme", "plan-2")
	src := NewSource(store)

	rows, err := src.ListPlans(context.Background(), "acme")
	if err != nil {
		t.Fatalf("ListPlans: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	for _, row := range rows {
		if row.Workspace != "acme" || row.Day != "2026-03-15" {
			t.Errorf("row: got %+v", row)
		}
		// Compile + Link + one spilled param file.
		if row.Descriptors != 3 {
			t.Errorf("descriptors: got %d, want 3", row.Descriptors)
		}
		if row.Bytes <= 0 {
			t.Errorf("bytes should be positive, got %d", row.Bytes)
		}
		if row.CompletedAt == "" {
			t.Error("completed_at should be set")
		}
	}
}

func TestListActions(t *testing.T) {
	src := fixtureSource(t)
	layout := sink.Layout{Workspace: "acme", Day: "2026-03-15", PlanID: "plan-1"}

	rows, err := src.ListActions(context.Background(), layout)
	if err != nil {
		t.Fatalf("ListActions: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	if rows[0].Seq != 1 || rows[0].Mnemonic != "Compile" {
		t.Errorf("row 0: got %+v", rows[0])
	}
	if rows[1].Mnemonic != "Link" || rows[1].Label != "//pkg:bin" {
		t.Errorf("row 1: got %+v", rows[1])
	}
	if rows[2].Mnemonic != action.ParamFileWriteMnemonic {
		t.Errorf("row 2: got %+v", rows[2])
	}
	if len(rows[0].Key) != 12 {
		t.Errorf("list keys should be shortened to 12 chars, got %q", rows[0].Key)
	}
}

func TestKeys(t *testing.T) {
	src := fixtureSource(t)
	layout := sink.Layout{Workspace: "acme", Day: "2026-03-15", PlanID: "plan-1"}

	rows, err := src.Keys(context.Background(), layout)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	seen := make(map[string]bool)
	for _, row := range rows {
		if len(row.Key) != 64 {
			t.Errorf("keys table carries full keys, got %d chars", len(row.Key))
		}
		if seen[row.Key] {
			t.Errorf("duplicate key %s", row.Key)
		}
		seen[row.Key] = true
	}
}

func TestInspectAction_ByLabel(t *testing.T) {
	src := fixtureSource(t)
	layout := sink.Layout{Workspace: "acme", Day: "2026-03-15", PlanID: "plan-1"}

	view, err := src.InspectAction(context.Background(), layout, "//pkg:bin")
	if err != nil {
		t.Fatalf("InspectAction: %v", err)
	}

	if view.Mnemonic != "Link" {
		t.Errorf("mnemonic: got %q", view.Mnemonic)
	}
	if view.PlanID != "plan-1" {
		t.Errorf("plan_id: got %q", view.PlanID)
	}
	if len(view.Env) != 1 || view.Env[0].Name != "LANG" || view.Env[0].Value != "C" {
		t.Errorf("env: got %+v", view.Env)
	}
	if view.Aspect == nil || view.Aspect.Name != "lint" {
		t.Errorf("aspect: got %+v", view.Aspect)
	}
	// The spilled segment leaves one param file input and reference.
	if len(view.ParamFiles) != 1 || view.ParamFiles[0] != "out/bin-2.params" {
		t.Errorf("param files: got %v", view.ParamFiles)
	}
}

func TestInspectAction_ByKeyPrefix(t *testing.T) {
	src := fixtureSource(t)
	layout := sink.Layout{Workspace: "acme", Day: "2026-03-15", PlanID: "plan-1"}

	rows, err := src.Keys(context.Background(), layout)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	fullKey := rows[0].Key

	view, err := src.InspectAction(context.Background(), layout, fullKey[:16])
	if err != nil {
		t.Fatalf("InspectAction: %v", err)
	}
	if view.Key != fullKey {
		t.Errorf("key: got %q, want %q", view.Key, fullKey)
	}

	// Exact full key also resolves.
	view, err = src.InspectAction(context.Background(), layout, fullKey)
	if err != nil {
		t.Fatalf("InspectAction full key: %v", err)
	}
	if view.Key != fullKey {
		t.Errorf("key: got %q", view.Key)
	}
}

func TestInspectAction_NoMatch(t *testing.T) {
	src := fixtureSource(t)
	layout := sink.Layout{Workspace: "acme", Day: "2026-03-15", PlanID: "plan-1"}

	_, err := src.InspectAction(context.Background(), layout, "zzzz")
	if err == nil {
		t.Fatal("expected error for unmatched reference")
	}
}

func TestInspectAction_EmptyRef(t *testing.T) {
	src := fixtureSource(t)
	layout := sink.Layout{Workspace: "acme", Day: "2026-03-15", PlanID: "plan-1"}

	_, err := src.InspectAction(context.Background(), layout, "")
	if err == nil {
		t.Fatal("expected error for empty reference")
	}
}

func TestPlanStats(t *testing.T) {
	src := fixtureSource(t)
	layout := sink.Layout{Workspace: "acme", Day: "2026-03-15", PlanID: "plan-1"}

	stats, err := src.PlanStats(context.Background(), layout)
	if err != nil {
		t.Fatalf("PlanStats: %v", err)
	}

	if stats.Descriptors != 3 {
		t.Errorf("descriptors: got %d, want 3", stats.Descriptors)
	}
	if stats.Spawns != 2 {
		t.Errorf("spawns: got %d, want 2", stats.Spawns)
	}
	if stats.ParamFiles != 1 {
		t.Errorf("param files: got %d, want 1", stats.ParamFiles)
	}
	// Compile 1 + Link 1 + param file 1.
	if stats.Outputs != 3 {
		t.Errorf("outputs: got %d, want 3", stats.Outputs)
	}
	if stats.ByMnemonic["Compile"] != 1 || stats.ByMnemonic["Link"] != 1 {
		t.Errorf("by_mnemonic: got %v", stats.ByMnemonic)
	}
	if stats.Skipped != 0 {
		t.Errorf("skipped: got %d", stats.Skipped)
	}
	if stats.Bytes <= 0 || stats.CompletedAt == "" {
		t.Errorf("manifest fields missing: %+v", stats)
	}
}

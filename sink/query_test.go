package sink

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/justapithecus/smelt/diag"
)

func putManifest(t *testing.T, store Store, layout Layout, completedAt string) {
	t.Helper()
	data, err := json.Marshal(Manifest{
		PlanID:      layout.PlanID,
		Workspace:   layout.Workspace,
		Day:         layout.Day,
		CompletedAt: completedAt,
	})
	if err != nil {
		t.Fatalf("marshal manifest: %v", err)
	}
	if err := store.Put(context.Background(), layout.ManifestKey(), data); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
}

func TestFindLatestPlan(t *testing.T) {
	store := NewStubStore()
	older := Layout{Workspace: "acme", Day: "2026-03-15", PlanID: "p1"}
	newer := Layout{Workspace: "acme", Day: "2026-03-16", PlanID: "p2"}
	other := Layout{Workspace: "beta", Day: "2026-03-17", PlanID: "p3"}
	putManifest(t, store, older, "2026-03-15T10:00:00Z")
	putManifest(t, store, newer, "2026-03-16T09:30:00Z")
	putManifest(t, store, other, "2026-03-17T08:00:00Z")

	layout, manifest, err := FindLatestPlan(context.Background(), NewReader(store), "acme")
	if err != nil {
		t.Fatalf("FindLatestPlan failed: %v", err)
	}
	if layout != newer {
		t.Errorf("layout = %+v, want %+v", layout, newer)
	}
	if manifest.PlanID != "p2" {
		t.Errorf("PlanID = %q, want p2", manifest.PlanID)
	}
}

func TestFindLatestPlan_SkipsUnreadableManifest(t *testing.T) {
	store := NewStubStore()
	good := Layout{Workspace: "acme", Day: "2026-03-15", PlanID: "p1"}
	bad := Layout{Workspace: "acme", Day: "2026-03-16", PlanID: "p2"}
	putManifest(t, store, good, "2026-03-15T10:00:00Z")
	if err := store.Put(context.Background(), bad.ManifestKey(), []byte("{broken")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	layout, _, err := FindLatestPlan(context.Background(), NewReader(store), "acme")
	if err != nil {
		t.Fatalf("FindLatestPlan failed: %v", err)
	}
	if layout != good {
		t.Errorf("layout = %+v, want %+v", layout, good)
	}
}

func TestFindLatestPlan_NoPlans(t *testing.T) {
	_, _, err := FindLatestPlan(context.Background(), NewReader(NewStubStore()), "acme")
	if !errors.Is(err, ErrNoPlansFound) {
		t.Errorf("error = %v, want ErrNoPlansFound", err)
	}
}

func TestSummarizeDescriptors(t *testing.T) {
	envelopes := []*diag.Envelope{
		{PlanID: "p1", Descriptor: &diag.Descriptor{Mnemonic: "Compile", OutputPaths: []string{"bin/a.o"}}},
		{PlanID: "p1", Descriptor: &diag.Descriptor{Mnemonic: "Compile", OutputPaths: []string{"bin/b.o"}}},
		{PlanID: "p1", Descriptor: &diag.Descriptor{Mnemonic: "Link", OutputPaths: []string{"bin/a", "bin/a.map"}}},
		{PlanID: "p1"},
	}

	summary := SummarizeDescriptors(envelopes, 2)
	if summary.PlanID != "p1" {
		t.Errorf("PlanID = %q, want p1", summary.PlanID)
	}
	if summary.Descriptors != 3 {
		t.Errorf("Descriptors = %d, want 3", summary.Descriptors)
	}
	if summary.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", summary.Skipped)
	}
	if summary.Outputs != 4 {
		t.Errorf("Outputs = %d, want 4", summary.Outputs)
	}
	if summary.ByMnemonic["Compile"] != 2 || summary.ByMnemonic["Link"] != 1 {
		t.Errorf("ByMnemonic = %v", summary.ByMnemonic)
	}
}

func TestSummarizeDescriptors_Empty(t *testing.T) {
	summary := SummarizeDescriptors(nil, 0)
	if summary.Descriptors != 0 || summary.Skipped != 0 {
		t.Errorf("summary = %+v, want zero counts", summary)
	}
	if summary.ByMnemonic == nil {
		t.Error("ByMnemonic is nil, want empty map")
	}
}

package plan

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/justapithecus/smelt/metrics"
)

func testReport(t *testing.T) *PlanReport {
	t.Helper()
	p := New("acme")
	if err := p.AddActions(buildSpilledSet(t, "bin/output")...); err != nil {
		t.Fatalf("AddActions() error = %v", err)
	}

	collector := metrics.NewCollector("acme", "fs", p.ID())
	collector.IncActionsBuilt()
	collector.IncActionsBuilt()
	return BuildPlanReport(p, collector.Snapshot(), 1500*time.Millisecond)
}

func TestBuildPlanReport(t *testing.T) {
	report := testReport(t)

	if report.PlanID == "" {
		t.Error("PlanID is empty")
	}
	if report.Workspace != "acme" {
		t.Errorf("Workspace = %q, want acme", report.Workspace)
	}
	if report.DurationMs != 1500 {
		t.Errorf("DurationMs = %d, want 1500", report.DurationMs)
	}
	if report.Actions != 2 || report.Spawns != 1 || report.FileWrites != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/1/1",
			report.Actions, report.Spawns, report.FileWrites)
	}
	if report.Metrics == nil || report.Metrics.ActionsBuilt != 2 {
		t.Errorf("Metrics = %+v, want ActionsBuilt 2", report.Metrics)
	}
	if report.Export != nil {
		t.Error("Export should be nil until an export runs")
	}
	if _, err := time.Parse(time.RFC3339, report.CreatedAt); err != nil {
		t.Errorf("CreatedAt %q is not RFC3339: %v", report.CreatedAt, err)
	}
}

func TestWritePlanReport_File(t *testing.T) {
	report := testReport(t)
	path := filepath.Join(t.TempDir(), "report.json")

	if err := WritePlanReport(report, path); err != nil {
		t.Fatalf("WritePlanReport() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var got PlanReport
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got.PlanID != report.PlanID {
		t.Errorf("round-tripped PlanID = %q, want %q", got.PlanID, report.PlanID)
	}
	if got.ByMnemonic["Link"] != 1 {
		t.Errorf("round-tripped ByMnemonic = %v", got.ByMnemonic)
	}
}

func TestWritePlanReport_EmptyPath(t *testing.T) {
	if err := WritePlanReport(testReport(t), ""); err == nil {
		t.Fatal("WritePlanReport() error = nil, want path error")
	}
}

func TestWritePlanReportTo_Writer(t *testing.T) {
	report := testReport(t)
	report.Export = &ReportExport{Destination: "fs:/tmp/out", Descriptors: 2, Bytes: 512}

	var buf bytes.Buffer
	if err := writePlanReportTo(report, &buf); err != nil {
		t.Fatalf("writePlanReportTo() error = %v", err)
	}
	var got PlanReport
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got.Export == nil || got.Export.Descriptors != 2 {
		t.Errorf("Export = %+v, want 2 descriptors", got.Export)
	}
	if !bytes.HasSuffix(buf.Bytes(), []byte("\n")) {
		t.Error("report output missing trailing newline")
	}
}

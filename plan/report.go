package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/justapithecus/smelt/metrics"
)

// PlanReport is the structured JSON report written by --report.
// All fields use json tags matching the documented contract.
type PlanReport struct {
	PlanID     string `json:"plan_id"`
	Workspace  string `json:"workspace"`
	CreatedAt  string `json:"created_at"`
	DurationMs int64  `json:"duration_ms"`

	Actions    int64            `json:"actions"`
	Spawns     int64            `json:"spawns"`
	FileWrites int64            `json:"file_writes"`
	Outputs    int64            `json:"outputs"`
	ByMnemonic map[string]int64 `json:"by_mnemonic,omitempty"`

	Export  *ReportExport     `json:"export,omitempty"`
	Metrics *metrics.Snapshot `json:"metrics"`
}

// ReportExport holds descriptor export stats in the report.
type ReportExport struct {
	Destination string `json:"destination"`
	Descriptors int64  `json:"descriptors"`
	Bytes       int64  `json:"bytes"`
}

// BuildPlanReport composes a PlanReport from a plan and a metrics
// snapshot. The export section is left nil; callers that export fill
// it in afterwards.
func BuildPlanReport(p *Plan, snap metrics.Snapshot, duration time.Duration) *PlanReport {
	stats := p.Stats()
	return &PlanReport{
		PlanID:     p.ID(),
		Workspace:  p.Workspace(),
		CreatedAt:  p.CreatedAt().Format(time.RFC3339),
		DurationMs: duration.Milliseconds(),
		Actions:    stats.Actions,
		Spawns:     stats.Spawns,
		FileWrites: stats.FileWrites,
		Outputs:    stats.Outputs,
		ByMnemonic: stats.ByMnemonic,
		Metrics:    &snap,
	}
}

// WritePlanReport writes the report as JSON to the specified path.
// If path is "-", writes to stderr.
func WritePlanReport(report *PlanReport, path string) error {
	if path == "" {
		return errors.New("report path must not be empty")
	}

	if path == "-" {
		return writePlanReportTo(report, os.Stderr)
	}

	data, err := marshalPlanReport(report)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", path, err)
	}
	return nil
}

// writePlanReportTo writes report JSON to any writer (for testing).
func writePlanReportTo(report *PlanReport, w io.Writer) error {
	data, err := marshalPlanReport(report)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func marshalPlanReport(report *PlanReport) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return append(data, '\n'), nil
}

package cmd

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/smelt/plan"
)

// newTestApp creates a cli.App with every command wired up and
// ExitErrHandler suppressed so errors are returned instead of calling
// os.Exit. The global flags mirror the real binary so subcommands can
// resolve --config and --log-level through the context lineage.
func newTestApp() *cli.App {
	app := cli.NewApp()
	app.Flags = []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}},
		&cli.StringFlag{Name: "log-level"},
	}
	app.Commands = []*cli.Command{
		PlanCommand(),
		ExportCommand(),
		MaterializeCommand(),
		ListCommand(),
		InspectCommand(),
		KeysCommand(),
		StatsCommand(),
		InitCommand(),
	}
	app.ExitErrHandler = func(c *cli.Context, err error) {} // suppress os.Exit
	return app
}

// writePlanFixture writes a two-action plan file and returns its path.
func writePlanFixture(t *testing.T, dir string) string {
	t.Helper()
	const fixture = `workspace: acme
actions:
  - mnemonic: Compile
    label: "//app:lib"
    executable: /usr/bin/cc
    executable_args: ["-c"]
    outputs: [out/lib.o]
    segments:
      - args: ["-O2", "src/lib.c"]
  - mnemonic: Link
    label: "//app:bin"
    executable: /usr/bin/ld
    inputs: [out/lib.o]
    outputs: [out/bin]
    segments:
      - args: ["-o", "out/bin", "out/lib.o"]
`
	path := filepath.Join(dir, "plan.yaml")
	if err := os.WriteFile(path, []byte(fixture), 0o644); err != nil {
		t.Fatalf("failed to write plan fixture: %v", err)
	}
	return path
}

// writeSpillPlanFixture writes a one-action plan whose only segment
// carries a param file spec, so any low threshold forces a spill.
func writeSpillPlanFixture(t *testing.T, dir string) string {
	t.Helper()
	const fixture = `workspace: acme
actions:
  - mnemonic: Link
    label: "//app:bin"
    executable: /usr/bin/ld
    outputs: [out/bin]
    segments:
      - args: ["-lfoo", "-lbar", "-lbaz"]
        param_file:
          type: unquoted
`
	path := filepath.Join(dir, "plan.yaml")
	if err := os.WriteFile(path, []byte(fixture), 0o644); err != nil {
		t.Fatalf("failed to write plan fixture: %v", err)
	}
	return path
}

func readReport(t *testing.T, path string) *plan.PlanReport {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	var report plan.PlanReport
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("failed to unmarshal report: %v", err)
	}
	return &report
}

func exitCodeOf(t *testing.T, err error) int {
	t.Helper()
	var coder cli.ExitCoder
	if !errors.As(err, &coder) {
		t.Fatalf("expected cli.ExitCoder, got %T: %v", err, err)
	}
	return coder.ExitCode()
}

func TestPlanCommand_WritesReport(t *testing.T) {
	dir := t.TempDir()
	planPath := writePlanFixture(t, dir)
	reportPath := filepath.Join(dir, "report.json")

	app := newTestApp()
	err := app.Run([]string{"smelt", "plan",
		"--file", planPath,
		"--report", reportPath,
		"--quiet",
	})
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}

	report := readReport(t, reportPath)
	if report.Workspace != "acme" {
		t.Errorf("workspace = %q, want acme", report.Workspace)
	}
	if report.PlanID == "" {
		t.Error("report should carry a plan ID")
	}
	if report.Actions != 2 {
		t.Errorf("actions = %d, want 2", report.Actions)
	}
	if report.Spawns != 2 {
		t.Errorf("spawns = %d, want 2", report.Spawns)
	}
	if report.FileWrites != 0 {
		t.Errorf("file writes = %d, want 0", report.FileWrites)
	}
	if report.ByMnemonic["Compile"] != 1 || report.ByMnemonic["Link"] != 1 {
		t.Errorf("by_mnemonic = %v", report.ByMnemonic)
	}
	if report.Metrics == nil {
		t.Fatal("report should carry a metrics snapshot")
	}
	if report.Metrics.ActionsBuilt != 2 {
		t.Errorf("metrics actions_built = %d, want 2", report.Metrics.ActionsBuilt)
	}
	if report.Export != nil {
		t.Error("bare plan run should not include an export section")
	}
}

func TestPlanCommand_SpillMinForcesParamFile(t *testing.T) {
	dir := t.TempDir()
	planPath := writeSpillPlanFixture(t, dir)
	reportPath := filepath.Join(dir, "report.json")

	app := newTestApp()
	err := app.Run([]string{"smelt", "plan",
		"--file", planPath,
		"--spill-min", "1",
		"--report", reportPath,
		"--quiet",
	})
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}

	report := readReport(t, reportPath)
	if report.Actions != 2 {
		t.Errorf("actions = %d, want 2 (spawn + param file write)", report.Actions)
	}
	if report.FileWrites != 1 {
		t.Errorf("file writes = %d, want 1", report.FileWrites)
	}
	if report.Metrics.SegmentsSpilled != 1 {
		t.Errorf("segments spilled = %d, want 1", report.Metrics.SegmentsSpilled)
	}
}

func TestPlanCommand_MissingPlanFile(t *testing.T) {
	app := newTestApp()
	err := app.Run([]string{"smelt", "plan", "--file", "/nonexistent/plan.yaml"})
	if err == nil {
		t.Fatal("expected error for missing plan file")
	}
	if code := exitCodeOf(t, err); code != exitValidation {
		t.Errorf("exit code = %d, want %d", code, exitValidation)
	}
	if !strings.Contains(err.Error(), "plan file not found") {
		t.Errorf("error should name the missing file, got: %v", err)
	}
}

func TestPlanCommand_WorkspaceRequired(t *testing.T) {
	dir := t.TempDir()
	planPath := filepath.Join(dir, "plan.yaml")
	const fixture = `actions:
  - mnemonic: Compile
    executable: /usr/bin/cc
    outputs: [out/lib.o]
`
	if err := os.WriteFile(planPath, []byte(fixture), 0o644); err != nil {
		t.Fatalf("failed to write plan fixture: %v", err)
	}

	app := newTestApp()
	err := app.Run([]string{"smelt", "plan", "--file", planPath, "--quiet"})
	if err == nil {
		t.Fatal("expected error for missing workspace")
	}
	if code := exitCodeOf(t, err); code != exitValidation {
		t.Errorf("exit code = %d, want %d", code, exitValidation)
	}
	if !strings.Contains(err.Error(), "workspace required") {
		t.Errorf("error should mention the workspace, got: %v", err)
	}
}

func TestPlanCommand_CLIWorkspaceOverridesPlanFile(t *testing.T) {
	dir := t.TempDir()
	planPath := writePlanFixture(t, dir)
	reportPath := filepath.Join(dir, "report.json")

	app := newTestApp()
	err := app.Run([]string{"smelt", "plan",
		"--file", planPath,
		"--workspace", "override",
		"--report", reportPath,
		"--quiet",
	})
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}

	report := readReport(t, reportPath)
	if report.Workspace != "override" {
		t.Errorf("workspace = %q, want override", report.Workspace)
	}
}

func TestPlanCommand_ConfigProvidesSpillThreshold(t *testing.T) {
	dir := t.TempDir()
	planPath := writeSpillPlanFixture(t, dir)
	reportPath := filepath.Join(dir, "report.json")

	configPath := filepath.Join(dir, "smelt.yaml")
	const cfg = `workspace: from-config
spill:
  min_size: 1
`
	if err := os.WriteFile(configPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	app := newTestApp()
	err := app.Run([]string{"smelt", "--config", configPath, "plan",
		"--file", planPath,
		"--report", reportPath,
		"--quiet",
	})
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}

	report := readReport(t, reportPath)
	if report.Workspace != "from-config" {
		t.Errorf("workspace = %q, want from-config (config wins over plan file)", report.Workspace)
	}
	if report.FileWrites != 1 {
		t.Errorf("file writes = %d, want 1 (config spill threshold applies)", report.FileWrites)
	}
}

func TestPlanCommand_EmptyPlanFile(t *testing.T) {
	dir := t.TempDir()
	planPath := filepath.Join(dir, "plan.yaml")
	if err := os.WriteFile(planPath, []byte(""), 0o644); err != nil {
		t.Fatalf("failed to write plan fixture: %v", err)
	}

	app := newTestApp()
	err := app.Run([]string{"smelt", "plan", "--file", planPath})
	if err == nil {
		t.Fatal("expected error for empty plan file")
	}
	if code := exitCodeOf(t, err); code != exitValidation {
		t.Errorf("exit code = %d, want %d", code, exitValidation)
	}
}

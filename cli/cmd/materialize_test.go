package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMaterializeCommand_WritesParamFiles(t *testing.T) {
	dir := t.TempDir()
	planPath := writeSpillPlanFixture(t, dir)
	outRoot := filepath.Join(dir, "tree")

	app := newTestApp()
	err := app.Run([]string{"smelt", "materialize",
		"--file", planPath,
		"--spill-min", "1",
		"--out-root", outRoot,
		"--quiet",
	})
	if err != nil {
		t.Fatalf("materialize failed: %v", err)
	}

	// The spilled segment lands next to the primary output.
	data, err := os.ReadFile(filepath.Join(outRoot, "out", "bin-2.params"))
	if err != nil {
		t.Fatalf("param file not materialized: %v", err)
	}
	want := "-lfoo\n-lbar\n-lbaz\n"
	if string(data) != want {
		t.Errorf("param file contents:\ngot  %q\nwant %q", string(data), want)
	}
}

func TestMaterializeCommand_NoSpills(t *testing.T) {
	dir := t.TempDir()
	planPath := writePlanFixture(t, dir)
	outRoot := filepath.Join(dir, "tree")

	app := newTestApp()
	err := app.Run([]string{"smelt", "materialize",
		"--file", planPath,
		"--out-root", outRoot,
		"--quiet",
	})
	if err != nil {
		t.Fatalf("materialize failed: %v", err)
	}

	entries, err := os.ReadDir(outRoot)
	if err != nil {
		t.Fatalf("out root missing: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty out root without spills, found %d entries", len(entries))
	}
}

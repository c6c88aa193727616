package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/smelt/cli/planfile"
	"github.com/justapithecus/smelt/metrics"
	"github.com/justapithecus/smelt/sink"
)

// MaterializeCommand constructs a plan and writes its parameter files
// into the output tree. Descriptors carry only the spilled paths, not
// the bytes, so materialization always rebuilds from the plan file.
func MaterializeCommand() *cli.Command {
	return &cli.Command{
		Name:  "materialize",
		Usage: "Construct a plan and write its parameter files to the output tree",
		Flags: append(buildFlags(),
			&cli.StringFlag{
				Name:  "out-root",
				Usage: "Directory parameter files are written under, keyed by exec path",
				Value: ".",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Suppress result output",
			},
		),
		Action: materializeAction,
	}
}

func materializeAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to load config: %v", err), exitValidation)
	}

	choice := resolveBuildConfig(c, cfg)

	f, err := planfile.Load(choice.file)
	if err != nil {
		return cli.Exit(err.Error(), exitValidation)
	}

	collector := metrics.NewCollector(choice.planWorkspace(f), "none", "")

	startTime := time.Now()
	p, err := buildPlanFromFile(f, choice, collector)
	if err != nil {
		return cli.Exit(fmt.Sprintf("plan construction failed: %v", err), exitValidation)
	}
	collector.SetPlanID(p.ID())

	// Set up context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	store, err := sink.NewFSStore(c.String("out-root"))
	if err != nil {
		return cli.Exit(err.Error(), exitExportIO)
	}

	written, err := sink.MaterializeParamFiles(ctx, store, p.Actions())
	if err != nil {
		return cli.Exit(fmt.Sprintf("materialize failed after %d files: %v", written, err), exitExportIO)
	}
	duration := time.Since(startTime)

	if !c.Bool("quiet") {
		outRoot := store.Root()
		if abs, err := filepath.Abs(outRoot); err == nil {
			outRoot = abs
		}
		fmt.Printf("\nplan_id=%s, workspace=%s, param_files=%d, duration=%s\n",
			p.ID(),
			p.Workspace(),
			written,
			duration.Round(time.Millisecond),
		)
		fmt.Printf("\n=== Materialize ===\n")
		fmt.Printf("Param Files:  %d\n", written)
		fmt.Printf("Out Root:     %s\n", outRoot)
		snap := collector.Snapshot()
		fmt.Printf("Segments Spilled:  %d\n", snap.SegmentsSpilled)
	}

	return nil
}

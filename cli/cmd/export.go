package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/smelt/adapter"
	"github.com/justapithecus/smelt/cli/config"
	"github.com/justapithecus/smelt/cli/planfile"
	"github.com/justapithecus/smelt/metrics"
	"github.com/justapithecus/smelt/plan"
	"github.com/justapithecus/smelt/sink"
)

// ExportCommand constructs a plan and exports its action descriptors
// to the configured store. This is the write entrypoint; every read
// command consumes what it produces.
func ExportCommand() *cli.Command {
	flags := append(buildFlags(), storageFlags()...)
	flags = append(flags,
		&cli.Int64Flag{
			Name:  "buffer-bytes",
			Usage: "Max buffered descriptor bytes before an intermediate write",
		},
		&cli.Int64Flag{
			Name:  "buffer-frames",
			Usage: "Max buffered frames before an intermediate write",
		},
		&cli.StringFlag{
			Name:  "report",
			Usage: "Write a JSON export report to this path (- for stderr)",
		},
		&cli.BoolFlag{
			Name:  "quiet",
			Usage: "Suppress result output",
		},
	)
	flags = append(flags, adapterFlags()...)

	return &cli.Command{
		Name:   "export",
		Usage:  "Construct a plan and export its descriptors",
		Flags:  flags,
		Action: exportAction,
	}
}

func exportAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to load config: %v", err), exitValidation)
	}

	buildCh := resolveBuildConfig(c, cfg)
	storageCh := resolveStorageConfig(c, cfg)
	if err := validateExportStorage(storageCh); err != nil {
		return cli.Exit(err.Error(), exitValidation)
	}

	f, err := planfile.Load(buildCh.file)
	if err != nil {
		return cli.Exit(err.Error(), exitValidation)
	}

	workspace := buildCh.planWorkspace(f)
	logger, err := newLogger(c, cfg, workspace)
	if err != nil {
		return cli.Exit(err.Error(), exitValidation)
	}

	// Adapters are validated up front so a bad --adapter flag fails
	// before any construction work happens.
	var adapters []adapter.Adapter
	if c.Bool("notify") {
		adapters, err = buildAdapters(c, cfg)
		if err != nil {
			return cli.Exit(fmt.Sprintf("invalid adapter config: %v", err), exitValidation)
		}
		defer closeAdapters(adapters)
	}

	collector := metrics.NewCollector(workspace, storageCh.backendName(), "")

	startTime := time.Now()
	p, err := buildPlanFromFile(f, buildCh, collector)
	if err != nil {
		return cli.Exit(fmt.Sprintf("plan construction failed: %v", err), exitValidation)
	}
	collector.SetPlanID(p.ID())
	logger = logger.WithPlan(p.ID())

	// Set up context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	store, err := buildStore(ctx, storageCh)
	if err != nil {
		return cli.Exit(err.Error(), exitValidation)
	}

	layout := sink.Layout{
		Workspace: p.Workspace(),
		Day:       sink.DeriveDay(p.CreatedAt()),
		PlanID:    p.ID(),
	}

	exporter, err := sink.NewExporter(sink.NewInstrumentedStore(store, collector), layout, sink.ExporterConfig{
		MaxBufferBytes: resolveInt64(c, "buffer-bytes",
			configVal(cfg, func(cf *config.Config) int64 { return cf.Export.BufferBytes })),
		MaxBufferFrames: resolveInt64(c, "buffer-frames",
			configVal(cfg, func(cf *config.Config) int64 { return cf.Export.BufferFrames })),
		Logger:  logger,
		Metrics: collector,
	})
	if err != nil {
		return cli.Exit(err.Error(), exitValidation)
	}

	if err := exporter.ExportPlan(ctx, p); err != nil {
		return cli.Exit(fmt.Sprintf("export failed: %v", err), exitExportIO)
	}
	if err := exporter.Close(ctx); err != nil {
		return cli.Exit(fmt.Sprintf("export failed: %v", err), exitExportIO)
	}
	duration := time.Since(startTime)

	snap := collector.Snapshot()
	exportStats := exporter.Stats()

	if !c.Bool("quiet") {
		printExportResult(p, layout, storageCh, snap, exportStats, duration)
	}

	if path := c.String("report"); path != "" {
		report := plan.BuildPlanReport(p, snap, duration)
		report.Export = &plan.ReportExport{
			Destination: buildStoragePath(storageCh, layout),
			Descriptors: exportStats.Descriptors,
			Bytes:       exportStats.Bytes,
		}
		if err := plan.WritePlanReport(report, path); err != nil {
			return cli.Exit(fmt.Sprintf("failed to write report: %v", err), exitExportIO)
		}
	}

	if len(adapters) > 0 {
		event := buildPlanCompletedEvent(p, snap, storageCh, layout, duration)
		published := notifyAdapters(ctx, logger, adapters, event)
		logger.Info("notifications published", map[string]any{
			"published": published,
			"adapters":  len(adapters),
		})
	}

	return nil
}

func printExportResult(p *plan.Plan, layout sink.Layout, choice storageChoice, snap metrics.Snapshot, stats sink.ExportStats, duration time.Duration) {
	planStats := p.Stats()

	fmt.Printf("\nplan_id=%s, workspace=%s, descriptors=%d, duration=%s\n",
		p.ID(),
		p.Workspace(),
		stats.Descriptors,
		duration.Round(time.Millisecond),
	)
	fmt.Printf("backend=%s, destination=%s\n",
		choice.backendName(),
		buildStoragePath(choice, layout),
	)

	fmt.Printf("\n=== Plan ===\n")
	fmt.Printf("Plan ID:      %s\n", p.ID())
	fmt.Printf("Workspace:    %s\n", p.Workspace())
	fmt.Printf("Day:          %s\n", layout.Day)
	fmt.Printf("Actions:      %d\n", planStats.Actions)
	fmt.Printf("Spawns:       %d\n", planStats.Spawns)
	fmt.Printf("File Writes:  %d\n", planStats.FileWrites)

	fmt.Printf("\n=== Export ===\n")
	fmt.Printf("Descriptors:  %d\n", stats.Descriptors)
	fmt.Printf("Bytes:        %d\n", stats.Bytes)
	fmt.Printf("Flushes:      %d\n", stats.Flushes)
	fmt.Printf("Writes OK:    %d\n", snap.ExportWriteSuccess)
	if snap.ExportWriteFailure > 0 {
		fmt.Printf("Writes Fail:  %d\n", snap.ExportWriteFailure)
	}

	if snap.SegmentsSpilled > 0 {
		fmt.Printf("\n=== Spill ===\n")
		fmt.Printf("Segments Inlined:  %d\n", snap.SegmentsInlined)
		fmt.Printf("Segments Spilled:  %d\n", snap.SegmentsSpilled)
	}
}

package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/smelt/cli/planfile"
	"github.com/justapithecus/smelt/metrics"
	"github.com/justapithecus/smelt/plan"
)

// PlanCommand constructs a plan from a plan file without exporting it.
// Useful for validating a plan file and inspecting construction stats
// before committing to an export.
func PlanCommand() *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Construct a plan from a plan file and print its stats",
		Flags: append(buildFlags(),
			&cli.StringFlag{
				Name:  "report",
				Usage: "Write a JSON construction report to this path (- for stderr)",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Suppress result output",
			},
		),
		Action: planAction,
	}
}

func planAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to load config: %v", err), exitValidation)
	}

	choice := resolveBuildConfig(c, cfg)

	f, err := planfile.Load(choice.file)
	if err != nil {
		return cli.Exit(err.Error(), exitValidation)
	}

	// No storage is involved in a bare plan run.
	collector := metrics.NewCollector(choice.planWorkspace(f), "none", "")

	startTime := time.Now()
	p, err := buildPlanFromFile(f, choice, collector)
	if err != nil {
		return cli.Exit(fmt.Sprintf("plan construction failed: %v", err), exitValidation)
	}
	collector.SetPlanID(p.ID())
	duration := time.Since(startTime)

	snap := collector.Snapshot()
	if !c.Bool("quiet") {
		printPlanResult(p, snap, duration)
	}

	if path := c.String("report"); path != "" {
		report := plan.BuildPlanReport(p, snap, duration)
		if err := plan.WritePlanReport(report, path); err != nil {
			return cli.Exit(fmt.Sprintf("failed to write report: %v", err), exitExportIO)
		}
	}

	return nil
}

package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/smelt/cli/render"
)

// StatsCommand aggregates one exported plan: descriptor counts by
// mnemonic, spill totals, and export volume.
func StatsCommand() *cli.Command {
	flags := append(TUIReadOnlyFlags(), storageFlags()...)
	return &cli.Command{
		Name:   "stats",
		Usage:  "Show aggregate stats for an exported plan",
		Flags:  append(flags, WorkspaceFlag, PlanFlag),
		Action: statsAction,
	}
}

func statsAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	src, err := openSource(c.Context, c)
	if err != nil {
		return cli.Exit(err.Error(), exitValidation)
	}
	layout, err := src.resolveLayout(c.Context, c)
	if err != nil {
		return cli.Exit(err.Error(), exitValidation)
	}

	view, err := src.source().PlanStats(c.Context, layout)
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}

	// Handle TUI mode
	if c.Bool("tui") {
		return r.RenderTUI("stats_plan", view)
	}

	return r.Render(view)
}

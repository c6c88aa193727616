package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/smelt/cli/render"
)

// listWarningThreshold is the number of rows above which we warn about using --limit.
const listWarningThreshold = 100

// isStderrTTY returns true if stderr is a TTY.
func isStderrTTY() bool {
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// ListCommand returns the list command with subcommands.
// List returns thin rows (not inspect-level detail) per CONTRACT_CLI.md.
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List entities (plans, actions)",
		Subcommands: []*cli.Command{
			listPlansCommand(),
			listActionsCommand(),
		},
	}
}

func listPlansCommand() *cli.Command {
	flags := append(ReadOnlyFlags(), storageFlags()...)
	return &cli.Command{
		Name:   "plans",
		Usage:  "List exported plans in a workspace",
		Flags:  append(flags, WorkspaceFlag),
		Action: listPlansAction,
	}
}

func listPlansAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	// TUI not supported for list commands
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for list commands", 1)
	}

	src, err := openSource(c.Context, c)
	if err != nil {
		return cli.Exit(err.Error(), exitValidation)
	}
	workspace, err := src.resolveWorkspace(c)
	if err != nil {
		return cli.Exit(err.Error(), exitValidation)
	}

	rows, err := src.source().ListPlans(c.Context, workspace)
	if err != nil {
		return fmt.Errorf("failed to list plans: %w", err)
	}

	return r.Render(rows)
}

func listActionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "actions",
		Usage: "List actions of a plan",
		Flags: append(readFlags(),
			&cli.StringFlag{
				Name:  "mnemonic",
				Usage: "Filter by mnemonic (e.g. Link, ParameterFileWrite)",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of rows to return (0 = no limit)",
				Value: 0,
			},
		),
		Action: listActionsAction,
	}
}

func listActionsAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for list commands", 1)
	}

	src, err := openSource(c.Context, c)
	if err != nil {
		return cli.Exit(err.Error(), exitValidation)
	}
	layout, err := src.resolveLayout(c.Context, c)
	if err != nil {
		return cli.Exit(err.Error(), exitValidation)
	}

	rows, err := src.source().ListActions(c.Context, layout)
	if err != nil {
		return fmt.Errorf("failed to list actions: %w", err)
	}

	if mnemonic := c.String("mnemonic"); mnemonic != "" {
		filtered := rows[:0]
		for _, row := range rows {
			if row.Mnemonic == mnemonic {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}

	limit := c.Int("limit")
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	// Warn if output is large and --limit was not specified (TTY only to avoid noise in pipelines)
	if len(rows) > listWarningThreshold && limit == 0 && isStderrTTY() {
		fmt.Fprintf(os.Stderr, "Warning: returning %d results. Consider using --limit to reduce output.\n\n", len(rows))
	}

	return r.Render(rows)
}

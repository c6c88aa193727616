package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/smelt/cli/render"
)

// InspectCommand returns the inspect command with subcommands.
// Inspect returns a deep view of a single entity per CONTRACT_CLI.md.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Inspect a single entity (action)",
		Subcommands: []*cli.Command{
			inspectActionCommand(),
		},
	}
}

func inspectActionCommand() *cli.Command {
	flags := append(TUIReadOnlyFlags(), storageFlags()...)
	return &cli.Command{
		Name:      "action",
		Usage:     "Inspect an action by key, key prefix, or owner label",
		ArgsUsage: "<key-or-label>",
		Flags:     append(flags, WorkspaceFlag, PlanFlag),
		Action:    inspectActionAction,
	}
}

func inspectActionAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("action key or label required", 1)
	}
	ref := c.Args().First()

	// Get renderer
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

	view, err := src.source().InspectAction(c.Context, layout, ref)
	if err != nil {
		return fmt.Errorf("failed to inspect action: %w", err)
	}

	// Handle TUI mode
	if c.Bool("tui") {
		return r.RenderTUI("inspect_action", view)
	}

	// Standard render
	return r.Render(view)
}

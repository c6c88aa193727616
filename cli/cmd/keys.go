package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/smelt/cli/render"
)

// KeysCommand prints the identity table of a plan: one row per
// descriptor with its full action key. Unlike list actions, keys are
// never truncated here; the table is meant for diffing across plans.
func KeysCommand() *cli.Command {
	return &cli.Command{
		Name:   "keys",
		Usage:  "Print the action identity table of a plan",
		Flags:  readFlags(),
		Action: keysAction,
	}
}

func keysAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for keys", 1)
	}

	src, err := openSource(c.Context, c)
	if err != nil {
		return cli.Exit(err.Error(), exitValidation)
	}
	layout, err := src.resolveLayout(c.Context, c)
	if err != nil {
		return cli.Exit(err.Error(), exitValidation)
	}

	rows, err := src.source().Keys(c.Context, layout)
	if err != nil {
		return fmt.Errorf("failed to read keys: %w", err)
	}

	return r.Render(rows)
}

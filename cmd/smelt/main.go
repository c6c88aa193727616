// Package main provides the smelt CLI entrypoint.
//
// Usage:
//
//	smelt <command> [subcommand] [options]
//
// Exit codes per CONTRACT_CLI.md:
//   - 0: success
//   - 1: validation error (flags, config, plan file)
//   - 2: internal error
//   - 3: export or storage I/O failure
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/smelt/cli/cmd"
	"github.com/justapithecus/smelt/types"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	app := &cli.App{
		Name:           "smelt",
		Usage:          "Smelt action construction CLI",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		ExitErrHandler: exitErrHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to smelt.yaml config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
			},
		},
		Commands: []*cli.Command{
			cmd.PlanCommand(),
			cmd.ExportCommand(),
			cmd.MaterializeCommand(),
			cmd.ListCommand(),
			cmd.InspectCommand(),
			cmd.KeysCommand(),
			cmd.StatsCommand(),
			cmd.InitCommand(),
			cmd.VersionCommand("", commit),
		},
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already handled the exit for cli.ExitCoder errors.
		// This branch handles unexpected errors that weren't wrapped.
		os.Exit(2)
	}
}

// exitErrHandler handles errors from the CLI, preserving exit codes from cli.Exit().
// This ensures command exit codes per CONTRACT_CLI.md are propagated.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	// Check for ExitCoder (from cli.Exit), handles wrapped errors
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()

		// Only print if there's a real message (not just "exit status N")
		// cli.Exit("", N).Error() returns "exit status N", so skip those
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	// Unexpected error - print and exit with code 2
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(2)
}

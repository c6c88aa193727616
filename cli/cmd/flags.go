// Package cmd provides CLI commands for the smelt binary.
package cmd

import "github.com/urfave/cli/v2"

// Exit codes per CONTRACT_CLI.md.
const (
	exitOK         = 0
	exitValidation = 1
	exitInternal   = 2
	exitExportIO   = 3
)

// Shared flags for read-only commands per CONTRACT_CLI.md.
var (
	// OutputFlag selects output format: json, table, yaml.
	OutputFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag enables Bubble Tea interactive mode.
	// Only valid for select read-only commands (inspect, stats).
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (inspect, stats only)",
	}

	// WorkspaceFlag selects the workspace partition.
	WorkspaceFlag = &cli.StringFlag{
		Name:    "workspace",
		Aliases: []string{"w"},
		Usage:   "Workspace name",
	}

	// PlanFlag selects a plan by ID for read commands. Empty selects
	// the latest completed plan in the workspace.
	PlanFlag = &cli.StringFlag{
		Name:    "plan",
		Aliases: []string{"p"},
		Usage:   "Plan ID (default: latest completed plan)",
	}
)

// ReadOnlyFlags returns the shared flags for all read-only commands.
// Includes --tui so that unsupported commands can provide explicit error messages
// instead of generic "flag not defined" errors.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		OutputFlag,
		NoColorFlag,
		TUIFlag,
	}
}

// TUIReadOnlyFlags returns flags for commands that support TUI mode.
// This is an alias for ReadOnlyFlags, kept for documentation clarity.
func TUIReadOnlyFlags() []cli.Flag {
	return ReadOnlyFlags()
}

// storageFlags returns the export-store selection flags shared by
// every command that opens the descriptor store. Unset flags fall
// back to the export section of the config file.
func storageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "storage-backend",
			Usage: "Storage backend: fs or s3",
		},
		&cli.StringFlag{
			Name:  "storage-path",
			Usage: "Storage path (fs: directory, s3: bucket/prefix)",
		},
		&cli.StringFlag{
			Name:  "storage-region",
			Usage: "AWS region for S3 backend (optional, uses default chain)",
		},
		&cli.StringFlag{
			Name:  "storage-endpoint",
			Usage: "Custom S3 endpoint URL for S3-compatible providers (MinIO, R2)",
		},
		&cli.BoolFlag{
			Name:  "storage-s3-path-style",
			Usage: "Force path-style S3 addressing (required by most S3-compatible providers)",
		},
	}
}

// buildFlags returns the plan-construction flags shared by plan,
// export, and materialize.
func buildFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "file",
			Aliases:  []string{"f"},
			Usage:    "Path to the plan file (YAML)",
			Required: true,
		},
		WorkspaceFlag,
		&cli.StringFlag{
			Name:  "root",
			Usage: "Directory input globs resolve against (default: current directory)",
		},
		&cli.IntFlag{
			Name:  "spill-min",
			Usage: "Minimum estimated argument bytes before a segment spills to a param file",
		},
	}
}

// readFlags returns the flags for commands that read exported plans.
func readFlags() []cli.Flag {
	flags := append(ReadOnlyFlags(), storageFlags()...)
	return append(flags, WorkspaceFlag, PlanFlag)
}

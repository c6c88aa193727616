package cmd

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"
)

//go:embed templates/smelt.yaml
var configTemplate []byte

//go:embed templates/plan.yaml
var planTemplate []byte

// InitCommand scaffolds a starter config and plan file so a new
// workspace can run `smelt plan -f plan.yaml` immediately.
func InitCommand() *cli.Command {
	return &cli.Command{
		Name:      "init",
		Usage:     "Write starter smelt.yaml and plan.yaml files",
		ArgsUsage: "[directory]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite existing files",
			},
		},
		Action: initAction,
	}
}

func initAction(c *cli.Context) error {
	dir := "."
	if c.NArg() > 0 {
		dir = c.Args().First()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return cli.Exit(fmt.Sprintf("cannot create %s: %v", dir, err), exitExportIO)
	}

	files := []struct {
		name     string
		contents []byte
	}{
		{"smelt.yaml", configTemplate},
		{"plan.yaml", planTemplate},
	}

	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if !c.Bool("force") {
			if _, err := os.Stat(path); err == nil {
				return cli.Exit(fmt.Sprintf("%s already exists (use --force to overwrite)", path), exitValidation)
			}
		}
		if err := os.WriteFile(path, f.contents, 0o644); err != nil {
			return cli.Exit(fmt.Sprintf("cannot write %s: %v", path, err), exitExportIO)
		}
		fmt.Printf("wrote %s\n", path)
	}

	return nil
}

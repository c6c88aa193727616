package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/smelt/cli/config"
	"github.com/justapithecus/smelt/cli/reader"
	"github.com/justapithecus/smelt/sink"
)

// readerSource bundles an opened descriptor store with the config it
// was resolved from. All read commands go through one of these.
type readerSource struct {
	choice storageChoice
	store  sink.Store
	cfg    *config.Config
}

// source returns the read-side data access facade.
func (rs *readerSource) source() *reader.Source {
	return reader.NewSource(rs.store)
}

// resolveWorkspace resolves the workspace with CLI > config
// precedence. Read commands cannot proceed without one: the
// workspace is the top-level storage partition.
func (rs *readerSource) resolveWorkspace(c *cli.Context) (string, error) {
	workspace := resolveString(c, "workspace",
		configVal(rs.cfg, func(cf *config.Config) string { return cf.Workspace }))
	if workspace == "" {
		return "", fmt.Errorf("--workspace required (or set workspace in the config file)")
	}
	return workspace, nil
}

// resolveLayout resolves --workspace and --plan into a concrete
// export layout. An empty --plan selects the latest completed plan.
func (rs *readerSource) resolveLayout(ctx context.Context, c *cli.Context) (sink.Layout, error) {
	workspace, err := rs.resolveWorkspace(c)
	if err != nil {
		return sink.Layout{}, err
	}
	return rs.source().ResolvePlan(ctx, workspace, c.String("plan"))
}

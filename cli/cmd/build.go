package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/smelt/cli/config"
	"github.com/justapithecus/smelt/cli/planfile"
	"github.com/justapithecus/smelt/metrics"
	"github.com/justapithecus/smelt/plan"
)

// buildChoice holds resolved plan-construction inputs shared by plan,
// export, and materialize.
type buildChoice struct {
	file      string
	workspace string
	root      string
	spillMin  *int
}

// resolveBuildConfig merges CLI build flags over the config file.
// The spill threshold keeps zero and unset distinct: zero forces
// every eligible segment to spill, unset keeps the builder default.
func resolveBuildConfig(c *cli.Context, cfg *config.Config) buildChoice {
	choice := buildChoice{
		file: c.String("file"),
		workspace: resolveString(c, "workspace",
			configVal(cfg, func(cf *config.Config) string { return cf.Workspace })),
		root: c.String("root"),
	}

	if c.IsSet("spill-min") {
		n := c.Int("spill-min")
		choice.spillMin = &n
	} else if cfg != nil && cfg.Spill.MinSize != nil {
		choice.spillMin = cfg.Spill.MinSize
	}

	return choice
}

// planWorkspace returns the effective workspace before construction:
// CLI and config win over the plan file's own declaration. Used to
// stamp metrics dimensions, which are fixed at collector creation.
func (choice buildChoice) planWorkspace(f *planfile.File) string {
	if choice.workspace != "" {
		return choice.workspace
	}
	return f.Workspace
}

// buildPlanFromFile constructs the plan from a parsed plan file.
func buildPlanFromFile(f *planfile.File, choice buildChoice, collector *metrics.Collector) (*plan.Plan, error) {
	return planfile.Build(f, planfile.BuildOptions{
		Workspace:      choice.workspace,
		Root:           choice.root,
		SpillThreshold: choice.spillMin,
		Metrics:        collector,
	})
}

func printPlanResult(p *plan.Plan, snap metrics.Snapshot, duration time.Duration) {
	stats := p.Stats()

	fmt.Printf("\nplan_id=%s, workspace=%s, actions=%d, duration=%s\n",
		p.ID(),
		p.Workspace(),
		stats.Actions,
		duration.Round(time.Millisecond),
	)

	fmt.Printf("\n=== Plan ===\n")
	fmt.Printf("Plan ID:      %s\n", p.ID())
	fmt.Printf("Workspace:    %s\n", p.Workspace())
	fmt.Printf("Actions:      %d\n", stats.Actions)
	fmt.Printf("Spawns:       %d\n", stats.Spawns)
	fmt.Printf("File Writes:  %d\n", stats.FileWrites)
	fmt.Printf("Outputs:      %d\n", stats.Outputs)

	if len(stats.ByMnemonic) > 0 {
		fmt.Printf("\n=== By Mnemonic ===\n")
		mnemonics := make([]string, 0, len(stats.ByMnemonic))
		for mn := range stats.ByMnemonic {
			mnemonics = append(mnemonics, mn)
		}
		sort.Strings(mnemonics)
		for _, mn := range mnemonics {
			fmt.Printf("%-20s %d\n", mn+":", stats.ByMnemonic[mn])
		}
	}

	fmt.Printf("\n=== Construction Stats ===\n")
	fmt.Printf("Actions Built:     %d\n", snap.ActionsBuilt)
	fmt.Printf("Keys Computed:     %d\n", snap.KeysComputed)
	fmt.Printf("Segments Inlined:  %d\n", snap.SegmentsInlined)
	fmt.Printf("Segments Spilled:  %d\n", snap.SegmentsSpilled)
}

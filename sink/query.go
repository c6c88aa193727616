package sink

import (
	"context"
	"errors"

	"github.com/justapithecus/smelt/diag"
)

// ErrNoPlansFound indicates no completed plan export matched the query.
var ErrNoPlansFound = errors.New("no completed plan exports found")

// FindLatestPlan returns the most recently completed export for the
// workspace, by manifest completion time. An empty workspace searches
// every workspace. Exports whose manifest cannot be read are skipped.
func FindLatestPlan(ctx context.Context, reader *Reader, workspace string) (Layout, *Manifest, error) {
	layouts, err := reader.ListPlans(ctx, workspace)
	if err != nil {
		return Layout{}, nil, err
	}

	var (
		bestLayout   Layout
		bestManifest *Manifest
	)
	for _, layout := range layouts {
		manifest, err := reader.ReadManifest(ctx, layout)
		if err != nil {
			continue
		}
		// RFC 3339 timestamps order lexicographically. Ties go to the
		// later key so repeated queries stay stable.
		if bestManifest == nil || manifest.CompletedAt >= bestManifest.CompletedAt {
			bestLayout = layout
			bestManifest = manifest
		}
	}
	if bestManifest == nil {
		return Layout{}, nil, ErrNoPlansFound
	}
	return bestLayout, bestManifest, nil
}

// PlanSummary aggregates the descriptor stream of one exported plan.
type PlanSummary struct {
	// PlanID is taken from the envelopes.
	PlanID string
	// Descriptors is the number of decodable descriptor envelopes.
	Descriptors int64
	// Skipped is the number of frames dropped by decode errors.
	Skipped int
	// Outputs is the total declared output count across descriptors.
	Outputs int64
	// ByMnemonic counts descriptors per mnemonic.
	ByMnemonic map[string]int64
}

// SummarizeDescriptors folds a decoded descriptor stream into counts.
func SummarizeDescriptors(envelopes []*diag.Envelope, skipped int) PlanSummary {
	summary := PlanSummary{
		Skipped:    skipped,
		ByMnemonic: make(map[string]int64),
	}
	for _, envelope := range envelopes {
		if envelope.Descriptor == nil {
			continue
		}
		if summary.PlanID == "" {
			summary.PlanID = envelope.PlanID
		}
		summary.Descriptors++
		summary.Outputs += int64(len(envelope.Descriptor.OutputPaths))
		summary.ByMnemonic[envelope.Descriptor.Mnemonic]++
	}
	return summary
}

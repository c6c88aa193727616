// Package metrics provides per-plan metrics collection per CONTRACT_METRICS.md.
//
// The Collector accumulates counters while a plan is constructed and
// exported. It is a leaf package with no internal dependencies. All
// increment methods are nil-receiver safe so construction paths can run
// without a collector attached.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all contract-required metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Construction
	ActionsBuilt       int64
	KeysComputed       int64
	ValidationFailures int64

	// Spill policy
	SegmentsInlined   int64
	SegmentsSpilled   int64
	SpilledByMnemonic map[string]int64

	// Export
	DescriptorsExported int64
	ExportWriteSuccess  int64
	ExportWriteFailure  int64

	// Dimensions (informational, set at construction)
	Workspace      string
	StorageBackend string
	PlanID         string
}

// Collector accumulates metrics for a single plan.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	// Construction
	actionsBuilt       int64
	keysComputed       int64
	validationFailures int64

	// Spill policy
	segmentsInlined   int64
	segmentsSpilled   int64
	spilledByMnemonic map[string]int64

	// Export
	descriptorsExported int64
	exportWriteSuccess  int64
	exportWriteFailure  int64

	// Dimensions
	workspace      string
	storageBackend string
	planID         string
}

// NewCollector creates a Collector with dimension labels.
// workspace and storageBackend are required per CONTRACT_METRICS.md;
// planID may be empty and stamped later via SetPlanID. Collectors are
// never reused across plans.
func NewCollector(workspace, storageBackend, planID string) *Collector {
	return &Collector{
		spilledByMnemonic: make(map[string]int64),
		workspace:         workspace,
		storageBackend:    storageBackend,
		planID:            planID,
	}
}

// --- Construction ---

// IncActionsBuilt records one successfully built action.
func (c *Collector) IncActionsBuilt() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.actionsBuilt++
	c.mu.Unlock()
}

// IncKeysComputed records one identity key computation.
func (c *Collector) IncKeysComputed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.keysComputed++
	c.mu.Unlock()
}

// IncValidationFailures records a construction-time validation error.
func (c *Collector) IncValidationFailures() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.validationFailures++
	c.mu.Unlock()
}

// --- Spill policy ---

// IncSegmentsInlined records a segment passed through inline.
func (c *Collector) IncSegmentsInlined() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.segmentsInlined++
	c.mu.Unlock()
}

// IncSegmentsSpilled records a segment spilled to a parameter file,
// attributed to the owning action's mnemonic.
func (c *Collector) IncSegmentsSpilled(mnemonic string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.segmentsSpilled++
	c.spilledByMnemonic[mnemonic]++
	c.mu.Unlock()
}

// --- Export ---

// IncDescriptorsExported records one descriptor frame handed to a sink.
func (c *Collector) IncDescriptorsExported() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.descriptorsExported++
	c.mu.Unlock()
}

// IncExportWriteSuccess records a successful sink write operation (per-call).
func (c *Collector) IncExportWriteSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.exportWriteSuccess++
	c.mu.Unlock()
}

// IncExportWriteFailure records a failed sink write operation (per-call).
func (c *Collector) IncExportWriteFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.exportWriteFailure++
	c.mu.Unlock()
}

// SetPlanID stamps the plan dimension once the plan identifier is known.
func (c *Collector) SetPlanID(planID string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.planID = planID
	c.mu.Unlock()
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics.
// The returned Snapshot is safe to read concurrently; the Collector can
// continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	spilled := make(map[string]int64, len(c.spilledByMnemonic))
	for k, v := range c.spilledByMnemonic {
		spilled[k] = v
	}

	return Snapshot{
		ActionsBuilt:       c.actionsBuilt,
		KeysComputed:       c.keysComputed,
		ValidationFailures: c.validationFailures,

		SegmentsInlined:   c.segmentsInlined,
		SegmentsSpilled:   c.segmentsSpilled,
		SpilledByMnemonic: spilled,

		DescriptorsExported: c.descriptorsExported,
		ExportWriteSuccess:  c.exportWriteSuccess,
		ExportWriteFailure:  c.exportWriteFailure,

		Workspace:      c.workspace,
		StorageBackend: c.storageBackend,
		PlanID:         c.planID,
	}
}

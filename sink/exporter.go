package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/justapithecus/smelt/action"
	"github.com/justapithecus/smelt/diag"
	"github.com/justapithecus/smelt/log"
	"github.com/justapithecus/smelt/metrics"
	"github.com/justapithecus/smelt/plan"
	"github.com/justapithecus/smelt/types"
)

// DefaultMaxBufferBytes is the frame buffer size that triggers an
// intermediate object write.
const DefaultMaxBufferBytes = 8 * 1024 * 1024

// ExporterConfig configures an Exporter.
type ExporterConfig struct {
	// MaxBufferBytes triggers an intermediate write of the descriptor
	// object once at least this many unflushed frame bytes accumulate.
	// Zero uses DefaultMaxBufferBytes.
	MaxBufferBytes int64

	// MaxBufferFrames triggers an intermediate write once this many
	// unflushed frames accumulate. Zero means no frame-count trigger.
	MaxBufferFrames int64

	// Logger is an optional logger for export observability.
	// If nil, no logging is emitted.
	Logger *log.Logger

	// Metrics is an optional collector. A nil collector records
	// nothing.
	Metrics *metrics.Collector
}

// Manifest marks a plan export complete and summarizes it. It is the
// last object written; readers treat its absence as an in-flight or
// aborted export.
type Manifest struct {
	ContractVersion string `json:"contract_version"`
	PlanID          string `json:"plan_id"`
	Workspace       string `json:"workspace"`
	Day             string `json:"day"`
	Descriptors     int64  `json:"descriptors"`
	Bytes           int64  `json:"bytes"`
	Flushes         int64  `json:"flushes"`
	CompletedAt     string `json:"completed_at"`
}

// ExportStats is a point-in-time summary of an exporter.
type ExportStats struct {
	Descriptors int64
	Bytes       int64
	Flushes     int64
}

// Exporter streams action descriptors for one plan into a store.
// Frames accumulate in memory and the descriptor object is written
// whole on each flush, so a retried flush overwrites rather than
// duplicates. Close writes the final object and the manifest.
// Thread-safe.
type Exporter struct {
	store     Store
	layout    Layout
	maxBytes  int64
	maxFrames int64
	logger    *log.Logger
	collector *metrics.Collector

	mu           sync.Mutex
	buf          bytes.Buffer
	descriptors  int64
	flushes      int64
	flushedLen   int
	flushedCount int64
	closed       bool
}

// NewExporter creates an exporter writing under the layout's prefix.
func NewExporter(store Store, layout Layout, cfg ExporterConfig) (*Exporter, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	maxBytes := cfg.MaxBufferBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBufferBytes
	}
	return &Exporter{
		store:     store,
		layout:    layout,
		maxBytes:  maxBytes,
		maxFrames: cfg.MaxBufferFrames,
		logger:    cfg.Logger,
		collector: cfg.Metrics,
	}, nil
}

// Export appends one descriptor to the stream. Sequence numbers are
// assigned in call order, starting at 1.
func (e *Exporter) Export(ctx context.Context, d *diag.Descriptor) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrExporterClosed
	}

	envelope := &diag.Envelope{
		ContractVersion: types.Version,
		PlanID:          e.layout.PlanID,
		Seq:             e.descriptors + 1,
		Kind:            diag.DescriptorKind,
		Ts:              time.Now().UTC().Format(time.RFC3339),
		Descriptor:      d,
	}
	frame, err := diag.EncodeEnvelope(envelope)
	if err != nil {
		return fmt.Errorf("encode descriptor %d: %w", e.descriptors+1, err)
	}

	e.buf.Write(frame)
	e.descriptors++
	e.collector.IncDescriptorsExported()

	pendingBytes := int64(e.buf.Len() - e.flushedLen)
	pendingFrames := e.descriptors - e.flushedCount
	if pendingBytes >= e.maxBytes || (e.maxFrames > 0 && pendingFrames >= e.maxFrames) {
		return e.flushLocked(ctx, false)
	}
	return nil
}

// ExportPlan exports a descriptor for every action in the plan, in
// plan order.
func (e *Exporter) ExportPlan(ctx context.Context, p *plan.Plan) error {
	for _, a := range p.Actions() {
		if err := e.Export(ctx, DescriptorOf(a)); err != nil {
			return err
		}
	}
	return nil
}

// Flush writes the descriptor object if unflushed frames exist.
func (e *Exporter) Flush(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrExporterClosed
	}
	return e.flushLocked(ctx, false)
}

// flushLocked writes the whole frame buffer as the descriptor object.
// The buffer is kept on failure; the next flush retries the full
// write. Caller must hold mu.
func (e *Exporter) flushLocked(ctx context.Context, force bool) error {
	if !force && e.buf.Len() == e.flushedLen {
		return nil
	}

	if err := e.store.Put(ctx, e.layout.DescriptorsKey(), e.buf.Bytes()); err != nil {
		e.logFlushFailure(err)
		return err
	}
	e.flushedLen = e.buf.Len()
	e.flushedCount = e.descriptors
	e.flushes++
	return nil
}

// Close writes the final descriptor object and the manifest, then
// marks the exporter closed. Safe to call again after a failed close;
// a closed exporter rejects further exports.
func (e *Exporter) Close(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}

	if err := e.flushLocked(ctx, true); err != nil {
		return err
	}

	manifest := Manifest{
		ContractVersion: types.Version,
		PlanID:          e.layout.PlanID,
		Workspace:       e.layout.Workspace,
		Day:             e.layout.Day,
		Descriptors:     e.descriptors,
		Bytes:           int64(e.buf.Len()),
		Flushes:         e.flushes,
		CompletedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	data = append(data, '\n')

	if err := e.store.Put(ctx, e.layout.ManifestKey(), data); err != nil {
		e.logFlushFailure(err)
		return err
	}

	e.closed = true
	e.logClosed(manifest)
	return nil
}

// Stats returns an atomic snapshot of export progress.
func (e *Exporter) Stats() ExportStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	return ExportStats{
		Descriptors: e.descriptors,
		Bytes:       int64(e.buf.Len()),
		Flushes:     e.flushes,
	}
}

// DescriptorOf returns the export descriptor for an action. Spawn
// actions carry one from construction; other actions are summarized
// from the Action interface.
func DescriptorOf(a action.Action) *diag.Descriptor {
	if sa, ok := a.(*action.SpawnAction); ok {
		return sa.Descriptor()
	}

	d := &diag.Descriptor{
		Mnemonic:   a.Mnemonic(),
		OwnerLabel: a.Owner().Label,
		ActionKey:  a.Key(),
	}
	for _, in := range a.Inputs() {
		d.InputPaths = append(d.InputPaths, in.ExecPath)
	}
	for _, out := range a.Outputs() {
		d.OutputPaths = append(d.OutputPaths, out.ExecPath)
	}
	return d
}

// --- Logging helpers ---

func (e *Exporter) logFlushFailure(err error) {
	if e.logger == nil {
		return
	}
	e.logger.Error("export flush failed", map[string]any{
		"plan_id": e.layout.PlanID,
		"key":     e.layout.DescriptorsKey(),
		"error":   err.Error(),
	})
}

func (e *Exporter) logClosed(m Manifest) {
	if e.logger == nil {
		return
	}
	e.logger.Info("export complete", map[string]any{
		"plan_id":     m.PlanID,
		"descriptors": m.Descriptors,
		"bytes":       m.Bytes,
		"flushes":     m.Flushes,
	})
}

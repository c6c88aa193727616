package sink

import (
	"context"

	"github.com/justapithecus/smelt/metrics"
)

// InstrumentedStore decorates a Store with write success/failure
// counters. Reads are passed through uncounted.
type InstrumentedStore struct {
	inner     Store
	collector *metrics.Collector
}

// NewInstrumentedStore wraps store with metrics recording. A nil
// collector records nothing.
func NewInstrumentedStore(store Store, collector *metrics.Collector) *InstrumentedStore {
	return &InstrumentedStore{
		inner:     store,
		collector: collector,
	}
}

// Put delegates to the wrapped store and records the outcome.
func (s *InstrumentedStore) Put(ctx context.Context, key string, data []byte) error {
	err := s.inner.Put(ctx, key, data)
	if err != nil {
		s.collector.IncExportWriteFailure()
		return err
	}
	s.collector.IncExportWriteSuccess()
	return nil
}

// Get delegates to the wrapped store.
func (s *InstrumentedStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.inner.Get(ctx, key)
}

// List delegates to the wrapped store.
func (s *InstrumentedStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// Unwrap returns the wrapped store.
func (s *InstrumentedStore) Unwrap() Store {
	return s.inner
}

var _ Store = (*InstrumentedStore)(nil)

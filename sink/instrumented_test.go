package sink

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/justapithecus/smelt/metrics"
)

func TestInstrumentedStore_CountsWrites(t *testing.T) {
	collector := metrics.NewCollector("acme", BackendStub, "plan-123")
	stub := NewStubStore()
	store := NewInstrumentedStore(stub, collector)
	ctx := context.Background()

	if err := store.Put(ctx, "a", []byte("1")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(ctx, "b", []byte("2")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	stub.FailPut = errors.New("received status 429")
	if err := store.Put(ctx, "c", []byte("3")); err == nil {
		t.Fatal("Put with failing store succeeded, want error")
	}

	snap := collector.Snapshot()
	if snap.ExportWriteSuccess != 2 {
		t.Errorf("ExportWriteSuccess = %d, want 2", snap.ExportWriteSuccess)
	}
	if snap.ExportWriteFailure != 1 {
		t.Errorf("ExportWriteFailure = %d, want 1", snap.ExportWriteFailure)
	}
}

func TestInstrumentedStore_Delegates(t *testing.T) {
	stub := NewStubStore()
	store := NewInstrumentedStore(stub, nil)
	ctx := context.Background()

	if err := store.Put(ctx, "key", []byte("body")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := store.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, []byte("body")) {
		t.Errorf("Get = %q, want %q", got, "body")
	}

	keys, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(keys) != 1 || keys[0] != "key" {
		t.Errorf("List = %v, want [key]", keys)
	}

	if store.Unwrap() != Store(stub) {
		t.Error("Unwrap did not return the inner store")
	}
}

// Package sink persists exported action descriptors.
//
// A plan export lands under a Hive-partitioned prefix:
//
//	workspace=<workspace>/day=<YYYY-MM-DD>/plan_id=<id>/descriptors.mpk
//	workspace=<workspace>/day=<YYYY-MM-DD>/plan_id=<id>/manifest.json
//
// descriptors.mpk holds length-prefixed msgpack envelopes, one per
// action, in plan order. manifest.json is written last and marks the
// export complete; readers treat exports without a manifest as
// in-flight.
package sink

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Storage backend names, as reported in metrics dimensions and
// configuration.
const (
	BackendFS   = "fs"
	BackendS3   = "s3"
	BackendStub = "stub"
)

// Object filenames inside a plan's export prefix.
const (
	descriptorsFilename = "descriptors.mpk"
	manifestFilename    = "manifest.json"
)

// DeriveDay computes the partition day from plan creation time.
// Format: YYYY-MM-DD in UTC.
func DeriveDay(createdAt time.Time) string {
	return createdAt.UTC().Format("2006-01-02")
}

// Layout holds the partition keys for one plan export.
// All keys are required and must be safe path components.
type Layout struct {
	// Workspace is the partition key for the owning workspace.
	Workspace string
	// Day is the partition key derived from plan creation (YYYY-MM-DD UTC).
	Day string
	// PlanID is the partition key for the plan identifier.
	PlanID string
}

// Validate checks that all partition keys are present and free of
// path separator and key-value delimiter characters.
func (l Layout) Validate() error {
	for _, part := range []struct {
		name, value string
	}{
		{"workspace", l.Workspace},
		{"day", l.Day},
		{"plan_id", l.PlanID},
	} {
		if part.value == "" {
			return fmt.Errorf("layout %s must not be empty", part.name)
		}
		if strings.ContainsAny(part.value, "/=\\") {
			return fmt.Errorf("layout %s %q contains reserved characters", part.name, part.value)
		}
	}
	return nil
}

// Prefix returns the Hive-partitioned object prefix for the export.
func (l Layout) Prefix() string {
	return fmt.Sprintf("workspace=%s/day=%s/plan_id=%s", l.Workspace, l.Day, l.PlanID)
}

// DescriptorsKey returns the object key of the descriptor stream.
func (l Layout) DescriptorsKey() string {
	return l.Prefix() + "/" + descriptorsFilename
}

// ManifestKey returns the object key of the export manifest.
func (l Layout) ManifestKey() string {
	return l.Prefix() + "/" + manifestFilename
}

// ParseLayoutKey recovers a Layout from an exported object key.
// Accepts keys of the form
// "workspace=<w>/day=<d>/plan_id=<p>/<filename>".
func ParseLayoutKey(key string) (Layout, error) {
	parts := strings.Split(key, "/")
	if len(parts) != 4 {
		return Layout{}, fmt.Errorf("object key %q is not a plan export path", key)
	}

	var l Layout
	for i, want := range []string{"workspace=", "day=", "plan_id="} {
		if !strings.HasPrefix(parts[i], want) {
			return Layout{}, fmt.Errorf("object key %q: segment %d must start with %q", key, i, want)
		}
	}
	l.Workspace = strings.TrimPrefix(parts[0], "workspace=")
	l.Day = strings.TrimPrefix(parts[1], "day=")
	l.PlanID = strings.TrimPrefix(parts[2], "plan_id=")
	if err := l.Validate(); err != nil {
		return Layout{}, fmt.Errorf("object key %q: %w", key, err)
	}
	return l, nil
}

// Store abstracts blob storage for descriptor exports. Put replaces
// the whole object; there is no append.
type Store interface {
	// Put writes an object at the key, replacing any existing object.
	Put(ctx context.Context, key string, data []byte) error

	// Get reads the whole object at the key.
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns the keys under the prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// ErrExporterClosed is returned when exporting through a closed
// exporter.
var ErrExporterClosed = errors.New("exporter is closed")

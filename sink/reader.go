package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/justapithecus/smelt/diag"
)

// Reader reads exported plans back out of a store.
type Reader struct {
	store Store
}

// NewReader creates a reader over the store.
func NewReader(store Store) *Reader {
	return &Reader{store: store}
}

// ListPlans returns the layouts of completed exports, in key order.
// An empty workspace lists every workspace. Exports without a
// manifest are in-flight or aborted and are not listed.
func (r *Reader) ListPlans(ctx context.Context, workspace string) ([]Layout, error) {
	prefix := ""
	if workspace != "" {
		prefix = "workspace=" + workspace + "/"
	}

	keys, err := r.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	var layouts []Layout
	for _, key := range keys {
		if !strings.HasSuffix(key, "/"+manifestFilename) {
			continue
		}
		layout, err := ParseLayoutKey(key)
		if err != nil {
			// Foreign objects under the prefix are not ours to read.
			continue
		}
		layouts = append(layouts, layout)
	}
	return layouts, nil
}

// ReadManifest fetches and parses the manifest of one exported plan.
func (r *Reader) ReadManifest(ctx context.Context, layout Layout) (*Manifest, error) {
	data, err := r.store.Get(ctx, layout.ManifestKey())
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", layout.ManifestKey(), err)
	}
	return &manifest, nil
}

// ReadDescriptors decodes every descriptor envelope of an exported
// plan, in sequence order. Individual frames that fail to decode are
// skipped and counted; a truncated or oversized frame aborts the read.
func (r *Reader) ReadDescriptors(ctx context.Context, layout Layout) ([]*diag.Envelope, int, error) {
	data, err := r.store.Get(ctx, layout.DescriptorsKey())
	if err != nil {
		return nil, 0, err
	}

	decoder := diag.NewFrameDecoder(bytes.NewReader(data))
	var envelopes []*diag.Envelope
	skipped := 0
	for {
		payload, err := decoder.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return envelopes, skipped, nil
			}
			return envelopes, skipped, fmt.Errorf("descriptor stream %s: %w", layout.DescriptorsKey(), err)
		}

		envelope, err := diag.DecodeEnvelope(payload)
		if err != nil {
			if diag.IsFatalFrameError(err) {
				return envelopes, skipped, fmt.Errorf("descriptor stream %s: %w", layout.DescriptorsKey(), err)
			}
			skipped++
			continue
		}
		envelopes = append(envelopes, envelope)
	}
}

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/smelt/adapter"
	"github.com/justapithecus/smelt/adapter/redis"
	"github.com/justapithecus/smelt/adapter/webhook"
	"github.com/justapithecus/smelt/cli/config"
	"github.com/justapithecus/smelt/log"
	"github.com/justapithecus/smelt/metrics"
	"github.com/justapithecus/smelt/plan"
	"github.com/justapithecus/smelt/sink"
	"github.com/justapithecus/smelt/types"
)

// adapterChoice holds resolved settings for one notification adapter.
type adapterChoice struct {
	adapterType string
	url         string
	channel     string
	headers     map[string]string
	timeout     time.Duration
	retries     int
}

// adapterFlags returns the notification flags for export.
func adapterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "notify",
			Usage: "Publish a plan_completed event after export",
		},
		&cli.StringFlag{
			Name:  "adapter",
			Usage: "Notification adapter type: webhook or redis",
		},
		&cli.StringFlag{
			Name:  "adapter-url",
			Usage: "Adapter endpoint (webhook: HTTP URL, redis: redis:// URL)",
		},
		&cli.StringFlag{
			Name:  "adapter-channel",
			Usage: "Redis pub/sub channel (default: smelt:plan_completed)",
		},
		&cli.StringSliceFlag{
			Name:  "adapter-header",
			Usage: "Custom webhook header as key=value (repeatable)",
		},
		&cli.DurationFlag{
			Name:  "adapter-timeout",
			Usage: "Per-publish timeout",
		},
		&cli.IntFlag{
			Name:  "adapter-retries",
			Usage: "Retry attempts on publish failure",
			Value: 3,
		},
	}
}

// parseAdapterConfigWithPrecedence resolves one adapter's settings.
// CLI flags win over the config entry; cfgAdapter may be nil when the
// config file declares no adapter of this type. Headers merge, with
// CLI entries overriding config entries of the same key.
func parseAdapterConfigWithPrecedence(c *cli.Context, cfgAdapter *config.AdapterConfig, adapterType string) (adapterChoice, error) {
	var cfgURL, cfgChannel string
	var cfgTimeout time.Duration
	if cfgAdapter != nil {
		cfgURL = cfgAdapter.URL
		cfgChannel = cfgAdapter.Channel
		cfgTimeout = cfgAdapter.Timeout.Duration
	}

	choice := adapterChoice{
		adapterType: adapterType,
		url:         resolveString(c, "adapter-url", cfgURL),
		channel:     resolveString(c, "adapter-channel", cfgChannel),
		timeout:     resolveDuration(c, "adapter-timeout", cfgTimeout),
	}

	switch adapterType {
	case "webhook", "redis":
		if choice.url == "" {
			return adapterChoice{}, fmt.Errorf("--adapter-url is required when --adapter=%s", adapterType)
		}
	default:
		return adapterChoice{}, fmt.Errorf("unknown adapter type %q (valid types: webhook, redis)", adapterType)
	}

	if c.IsSet("adapter-retries") {
		choice.retries = c.Int("adapter-retries")
	} else if cfgAdapter != nil && cfgAdapter.Retries != nil {
		choice.retries = *cfgAdapter.Retries
	} else {
		choice.retries = c.Int("adapter-retries")
	}

	headers := make(map[string]string)
	if cfgAdapter != nil {
		for k, v := range cfgAdapter.Headers {
			headers[k] = v
		}
	}
	for _, h := range c.StringSlice("adapter-header") {
		key, value, ok := strings.Cut(h, "=")
		if !ok || key == "" {
			return adapterChoice{}, fmt.Errorf("invalid --adapter-header %q (format: key=value)", h)
		}
		headers[key] = value
	}
	if len(headers) > 0 {
		choice.headers = headers
	}

	return choice, nil
}

// configAdapterChoice converts one config file adapter entry into a
// resolved choice without consulting CLI flags.
func configAdapterChoice(entry *config.AdapterConfig) (adapterChoice, error) {
	choice := adapterChoice{
		adapterType: entry.Type,
		url:         entry.URL,
		channel:     entry.Channel,
		timeout:     entry.Timeout.Duration,
	}
	if len(entry.Headers) > 0 {
		choice.headers = entry.Headers
	}

	switch entry.Type {
	case "webhook":
		choice.retries = webhook.DefaultRetries
	case "redis":
		choice.retries = redis.DefaultRetries
	default:
		return adapterChoice{}, fmt.Errorf("unknown adapter type %q (valid types: webhook, redis)", entry.Type)
	}
	if entry.Retries != nil {
		choice.retries = *entry.Retries
	}
	if choice.url == "" {
		return adapterChoice{}, fmt.Errorf("adapter %q requires a url", entry.Type)
	}

	return choice, nil
}

// buildAdapter constructs the adapter named by the choice.
func buildAdapter(choice adapterChoice) (adapter.Adapter, error) {
	switch choice.adapterType {
	case "webhook":
		return webhook.New(webhook.Config{
			URL:     choice.url,
			Headers: choice.headers,
			Timeout: choice.timeout,
			Retries: choice.retries,
		})
	case "redis":
		return redis.New(redis.Config{
			URL:     choice.url,
			Channel: choice.channel,
			Timeout: choice.timeout,
			Retries: choice.retries,
		})
	default:
		return nil, fmt.Errorf("unknown adapter type %q (valid types: webhook, redis)", choice.adapterType)
	}
}

// findConfigAdapter returns the first config adapter of the given
// type, or nil.
func findConfigAdapter(cfg *config.Config, adapterType string) *config.AdapterConfig {
	if cfg == nil {
		return nil
	}
	for i := range cfg.Adapters {
		if cfg.Adapters[i].Type == adapterType {
			return &cfg.Adapters[i]
		}
	}
	return nil
}

// buildAdapters assembles the notification fan-out set: every adapter
// listed in the config file, plus the CLI-selected adapter. A CLI
// --adapter of a type also present in config replaces that config
// entry (merged per parseAdapterConfigWithPrecedence) instead of
// publishing twice.
func buildAdapters(c *cli.Context, cfg *config.Config) ([]adapter.Adapter, error) {
	cliType := c.String("adapter")
	var adapters []adapter.Adapter

	fail := func(err error) ([]adapter.Adapter, error) {
		closeAdapters(adapters)
		return nil, err
	}

	if cfg != nil {
		for i := range cfg.Adapters {
			entry := &cfg.Adapters[i]
			if cliType != "" && entry.Type == cliType {
				continue
			}
			choice, err := configAdapterChoice(entry)
			if err != nil {
				return fail(fmt.Errorf("adapter %d in config: %w", i, err))
			}
			a, err := buildAdapter(choice)
			if err != nil {
				return fail(fmt.Errorf("adapter %d in config: %w", i, err))
			}
			adapters = append(adapters, a)
		}
	}

	if cliType != "" {
		choice, err := parseAdapterConfigWithPrecedence(c, findConfigAdapter(cfg, cliType), cliType)
		if err != nil {
			return fail(err)
		}
		a, err := buildAdapter(choice)
		if err != nil {
			return fail(err)
		}
		adapters = append(adapters, a)
	}

	return adapters, nil
}

func closeAdapters(adapters []adapter.Adapter) {
	for _, a := range adapters {
		_ = a.Close()
	}
}

// notifyAdapters publishes the event to every adapter. Publish
// failures are logged and do not fail the export; the descriptors are
// already durably stored. Returns the number of successful publishes.
func notifyAdapters(ctx context.Context, logger *log.Logger, adapters []adapter.Adapter, event *adapter.PlanCompletedEvent) int {
	published := 0
	for _, a := range adapters {
		if err := a.Publish(ctx, event); err != nil {
			logger.Warn("notification publish failed", map[string]any{
				"error":   err.Error(),
				"plan_id": event.PlanID,
			})
			continue
		}
		published++
	}
	return published
}

// buildStoragePath renders the export destination as a URI for event
// payloads and reports.
func buildStoragePath(choice storageChoice, layout sink.Layout) string {
	switch choice.backendName() {
	case sink.BackendFS:
		root := choice.path
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
		return "file://" + root + "/" + layout.Prefix()
	case sink.BackendS3:
		bucket, prefix := sink.ParseS3Path(choice.path)
		if prefix != "" {
			return "s3://" + bucket + "/" + prefix + "/" + layout.Prefix()
		}
		return "s3://" + bucket + "/" + layout.Prefix()
	default:
		return layout.Prefix()
	}
}

// buildPlanCompletedEvent composes the notification payload for a
// finished export.
func buildPlanCompletedEvent(p *plan.Plan, snap metrics.Snapshot, choice storageChoice, layout sink.Layout, duration time.Duration) *adapter.PlanCompletedEvent {
	stats := p.Stats()
	return &adapter.PlanCompletedEvent{
		ContractVersion: types.Version,
		EventType:       adapter.EventTypePlanCompleted,
		PlanID:          p.ID(),
		Workspace:       layout.Workspace,
		Day:             layout.Day,
		ActionCount:     int(stats.Actions),
		SpawnCount:      int(stats.Spawns),
		FileWriteCount:  int(stats.FileWrites),
		SpillCount:      snap.SegmentsSpilled,
		StoragePath:     buildStoragePath(choice, layout),
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		DurationMs:      duration.Milliseconds(),
	}
}

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/smelt/cli/config"
	"github.com/justapithecus/smelt/sink"
)

// storageChoice holds resolved descriptor-store configuration.
type storageChoice struct {
	backend   string // "fs" or "s3"
	path      string // fs: directory, s3: bucket/prefix
	region    string
	endpoint  string
	pathStyle bool
}

// backendName normalizes the backend for metrics dimensions.
func (s storageChoice) backendName() string {
	if s.backend == "" {
		return sink.BackendFS
	}
	return s.backend
}

// resolveStorageConfig merges CLI storage flags over the export
// section of the config file.
func resolveStorageConfig(c *cli.Context, cfg *config.Config) storageChoice {
	return storageChoice{
		backend: resolveString(c, "storage-backend",
			configVal(cfg, func(cf *config.Config) string { return cf.Export.Backend })),
		path: resolveString(c, "storage-path",
			configVal(cfg, func(cf *config.Config) string { return cf.Export.Path })),
		region: resolveString(c, "storage-region",
			configVal(cfg, func(cf *config.Config) string { return cf.Export.Region })),
		endpoint: resolveString(c, "storage-endpoint",
			configVal(cfg, func(cf *config.Config) string { return cf.Export.Endpoint })),
		pathStyle: resolveBool(c, "storage-s3-path-style",
			configVal(cfg, func(cf *config.Config) bool { return cf.Export.S3PathStyle })),
	}
}

// validateStorageConfig checks store selection for read commands.
// The fs path must already exist: reading a directory nothing was
// exported to deserves an early, specific message.
func validateStorageConfig(choice storageChoice) error {
	switch choice.backend {
	case "fs", "":
		if choice.path == "" {
			return fmt.Errorf("--storage-path required for fs backend (the directory plans were exported to)")
		}
		info, err := os.Stat(choice.path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("storage path %q does not exist. Create it with: mkdir -p %s", choice.path, choice.path)
			}
			return fmt.Errorf("cannot access storage path %q: %w", choice.path, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("storage path %q is not a directory", choice.path)
		}
		return nil

	case "s3":
		if choice.path == "" {
			return fmt.Errorf("--storage-path required for s3 backend. Format: bucket-name/optional/prefix")
		}
		return nil

	default:
		return fmt.Errorf("invalid --storage-backend: %q. Valid options: fs, s3", choice.backend)
	}
}

// validateExportStorage checks store selection for the export path.
// The fs directory may be missing; the store creates it on first write.
func validateExportStorage(choice storageChoice) error {
	switch choice.backend {
	case "fs", "":
		if choice.path == "" {
			return fmt.Errorf("--storage-path required for fs backend (a directory for exported plans)")
		}
		return nil

	case "s3":
		if choice.path == "" {
			return fmt.Errorf("--storage-path required for s3 backend. Format: bucket-name/optional/prefix")
		}
		return nil

	default:
		return fmt.Errorf("invalid --storage-backend: %q. Valid options: fs, s3", choice.backend)
	}
}

// buildStore creates the descriptor store for the resolved choice.
func buildStore(ctx context.Context, choice storageChoice) (sink.Store, error) {
	switch choice.backend {
	case "fs", "":
		return sink.NewFSStore(choice.path)

	case "s3":
		bucket, prefix := sink.ParseS3Path(choice.path)
		return sink.NewS3Store(ctx, sink.S3Config{
			Bucket:       bucket,
			Prefix:       prefix,
			Region:       choice.region,
			Endpoint:     choice.endpoint,
			UsePathStyle: choice.pathStyle,
		})

	default:
		return nil, fmt.Errorf("invalid --storage-backend: %q. Valid options: fs, s3", choice.backend)
	}
}

// openSource validates the storage choice and opens the read-side
// data source over it.
func openSource(ctx context.Context, c *cli.Context) (*readerSource, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	choice := resolveStorageConfig(c, cfg)
	if err := validateStorageConfig(choice); err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, choice)
	if err != nil {
		return nil, err
	}

	return &readerSource{choice: choice, store: store, cfg: cfg}, nil
}

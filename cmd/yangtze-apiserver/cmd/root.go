package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/dtomasi/yangtze/core/pkg/config"
	"github.com/dtomasi/yangtze/core/pkg/defaulting"
	"github.com/dtomasi/yangtze/core/pkg/logging"
	"github.com/dtomasi/yangtze/core/pkg/server"
	"github.com/dtomasi/yangtze/core/pkg/storage"
	"github.com/dtomasi/yangtze/core/pkg/validation"
	v1 "github.com/dtomasi/yangtze/core/types/v1"
	"github.com/dtomasi/yangtze/core/types/v1alpha1"
	"github.com/dtomasi/yangtze/storage/factory"
)

// options holds the command line flags. Flags that were not set leave the
// file and environment configuration untouched.
type options struct {
	configPath  string
	listen      string
	storageType string
	dataDir     string
	databaseURL string
	logLevel    string
}

// NewRootCommand creates the yangtze-apiserver command
func NewRootCommand() *cobra.Command {
	return newRootCommand(&options{})
}

func newRootCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "yangtze-apiserver",
		Short: "Serve yangtze resources over HTTP",
		Long: `yangtze-apiserver stores fabrics and switches and serves them over HTTP.

Configuration is read from the TOML file given with --config, then from the
environment (DATABASE_URL, YANGTZE_LOG_LEVEL), then from flags.`,
		Example: `  # In-memory store on the default address
  yangtze-apiserver

  # Durable pebble store
  yangtze-apiserver --storage pebble --data-dir /var/lib/yangtze`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "Path to a TOML configuration file")
	flags.StringVar(&opts.listen, "listen", "", "Listen address (default "+server.DefaultAddress+")")
	flags.StringVar(&opts.storageType, "storage", "", "Storage backend, one of: "+storage.StorageTypeNames(", "))
	flags.StringVar(&opts.dataDir, "data-dir", "", "Directory of the pebble database")
	flags.StringVar(&opts.databaseURL, "database-url", "", "Postgres connection string")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: info, verbose, debug, trace or a number")

	return cmd
}

// load resolves the configuration and applies the flags that were set.
func (o *options) load(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.Server.Address = o.listen
	}
	if flags.Changed("database-url") {
		cfg.Storage.DatabaseURL = o.databaseURL
		cfg.Storage.Type = storage.StorageTypePostgres
	}
	if flags.Changed("data-dir") {
		cfg.Storage.Path = o.dataDir
		if !flags.Changed("storage") {
			cfg.Storage.Type = storage.StorageTypePebble
		}
	}
	if flags.Changed("storage") {
		storageType, err := storage.StorageTypeFromString(o.storageType)
		if err != nil {
			return config.Config{}, v1.WrapConfigError("storage", err)
		}
		cfg.Storage.Type = storageType
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func run(ctx context.Context, cfg config.Config) error {
	logOptions, err := cfg.Logging()
	if err != nil {
		return err
	}
	logger, err := logging.New(logOptions)
	if err != nil {
		return err
	}
	logger = logger.WithName("apiserver")

	backend, err := factory.New(ctx, &cfg.Storage, storage.Config{Logger: logger.WithName("storage")})
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error(err, "failed to close storage")
		}
	}()

	srv, err := newServer(cfg, backend, logger)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	if compactor, ok := backend.(storage.Compactor); ok && cfg.Storage.Performance.CompactionInterval > 0 {
		g.Go(func() error {
			compact(gctx, compactor, cfg.Storage.Performance.CompactionInterval, logger)
			return nil
		})
	}
	return g.Wait()
}

// newServer builds the server and registers every v1alpha1 kind on it.
func newServer(cfg config.Config, backend storage.Backend, logger logr.Logger) (*server.Server, error) {
	registry := v1alpha1.NewRegistry()
	validator, err := validation.ForRegistry(registry)
	if err != nil {
		return nil, err
	}
	defaulter, err := defaulting.ForRegistry(registry)
	if err != nil {
		return nil, err
	}

	srv, err := server.New(server.Config{
		Address:         cfg.Server.Address,
		Storage:         backend,
		Validator:       validator,
		Defaulter:       defaulter,
		Logger:          logger,
		HealthTimeout:   cfg.Storage.HealthCheck.Timeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return nil, err
	}
	if err := server.Register[v1alpha1.Fabric](srv, v1alpha1.FabricVersionKind); err != nil {
		return nil, fmt.Errorf("failed to register fabrics: %w", err)
	}
	if err := server.Register[v1alpha1.Switch](srv, v1alpha1.SwitchVersionKind); err != nil {
		return nil, fmt.Errorf("failed to register switches: %w", err)
	}
	return srv, nil
}

// compact runs periodic compaction until ctx is done. The first run waits
// one full interval.
func compact(ctx context.Context, compactor storage.Compactor, interval time.Duration, logger logr.Logger) {
	first := true
	wait.UntilWithContext(ctx, func(ctx context.Context) {
		if first {
			first = false
			return
		}
		start := time.Now()
		if err := compactor.Compact(ctx); err != nil {
			logger.Error(err, "compaction failed")
			return
		}
		logger.V(logging.VERBOSE).Info("compacted storage", "duration", time.Since(start))
	}, interval)
}

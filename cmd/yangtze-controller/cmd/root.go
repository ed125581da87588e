package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dtomasi/yangtze/controllers/fabric"
	"github.com/dtomasi/yangtze/controllers/switches"
	"github.com/dtomasi/yangtze/core/pkg/client"
	"github.com/dtomasi/yangtze/core/pkg/config"
	"github.com/dtomasi/yangtze/core/pkg/controller"
	"github.com/dtomasi/yangtze/core/pkg/logging"
	"github.com/dtomasi/yangtze/core/types/v1alpha1"
)

const shutdownTimeout = 5 * time.Second

type options struct {
	configPath    string
	server        string
	interval      time.Duration
	restartPolicy string
	healthAddress string
	logLevel      string
}

// NewRootCommand creates the yangtze-controller command
func NewRootCommand() *cobra.Command {
	return newRootCommand(&options{})
}

func newRootCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "yangtze-controller",
		Short: "Reconcile fabrics and switches",
		Long: `yangtze-controller polls the API server and drives every fabric and
switch towards its desired state.

Configuration is read from the TOML file given with --config, then from the
environment (YANGTZE_ADDRESS, YANGTZE_LOG_LEVEL), then from flags.`,
		Example: `  yangtze-controller --server http://apiserver:8080 --interval 5s`,
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
	flags.StringVar(&opts.server, "server", "", "Base URL of the API server (default "+client.DefaultAddress+")")
	flags.DurationVar(&opts.interval, "interval", 0, "Pause before every reconciliation pass (default "+controller.DefaultInterval.String()+")")
	flags.StringVar(&opts.restartPolicy, "restart-policy", "", "What to do with a failed controller: Never, Immediate or Backoff")
	flags.StringVar(&opts.healthAddress, "health-addr", "", "Address of the health and metrics endpoint, empty disables it")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: info, verbose, debug, trace or a number")

	return cmd
}

func (o *options) load(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.Controller.Server = o.server
	}
	if flags.Changed("interval") {
		cfg.Controller.Interval = o.interval
	}
	if flags.Changed("restart-policy") {
		cfg.Controller.RestartPolicy = controller.RestartPolicy(o.restartPolicy)
	}
	if flags.Changed("health-addr") {
		cfg.Controller.HealthAddress = o.healthAddress
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
	logger = logger.WithName("controller")

	rt, err := newRuntime(cfg, logger)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return rt.Run(gctx)
	})
	if cfg.Controller.HealthAddress != "" {
		g.Go(func() error {
			return serveHealth(gctx, cfg.Controller.HealthAddress, controller.HealthHandler(rt), logger)
		})
	}
	return g.Wait()
}

// newRuntime builds the runtime and registers the fabric and switch
// controllers. Each controller lists the other kind through its own client.
func newRuntime(cfg config.Config, logger logr.Logger) (*controller.Runtime, error) {
	clientConfig := client.Config{
		Address: cfg.Controller.Server,
		Timeout: cfg.Controller.CallTimeout,
		Logger:  logger.WithName("client"),
	}
	defaults := controller.DefaultConfig()
	rt := controller.NewRuntime(clientConfig,
		controller.WithInterval(cfg.Controller.Interval),
		controller.WithCallTimeout(cfg.Controller.CallTimeout),
		controller.WithListRetry(defaults.ListBackoff, cfg.Controller.ListRetries),
		controller.WithRestartPolicy(cfg.Controller.RestartPolicy, defaults.RestartBackoff, cfg.Controller.MaxRestarts),
		controller.WithLogger(logger),
	)

	c, err := client.New(clientConfig)
	if err != nil {
		return nil, err
	}
	fabrics, err := client.For[v1alpha1.Fabric](c, v1alpha1.FabricVersionKind)
	if err != nil {
		return nil, err
	}
	switchList, err := client.For[v1alpha1.Switch](c, v1alpha1.SwitchVersionKind)
	if err != nil {
		return nil, err
	}

	if err := controller.Register[v1alpha1.Fabric](rt, fabric.New(switchList)); err != nil {
		return nil, fmt.Errorf("failed to register fabric controller: %w", err)
	}
	if err := controller.Register[v1alpha1.Switch](rt, switches.New(fabrics)); err != nil {
		return nil, fmt.Errorf("failed to register switch controller: %w", err)
	}
	return rt, nil
}

// serveHealth serves handler on address until ctx is done.
func serveHealth(ctx context.Context, address string, handler http.Handler, logger logr.Logger) error {
	srv := &http.Server{
		Addr:              address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("serving health endpoint", "address", address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve health endpoint on %s: %w", address, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dtomasi/yangtze/cli-runtime/flags"
	"github.com/dtomasi/yangtze/cli-runtime/handlers"
	"github.com/dtomasi/yangtze/core/pkg/client"
	"github.com/dtomasi/yangtze/core/pkg/config"
	v1 "github.com/dtomasi/yangtze/core/types/v1"
	"github.com/dtomasi/yangtze/core/types/v1alpha1"
)

// session is built once per invocation from the connection flags.
type session struct {
	clientConfig client.Config
	registry     *v1.Registry
	factory      *handlers.HandlerFactory
}

// NewRootCommand creates the root yzctl command
func NewRootCommand() *cobra.Command {
	s := &session{
		clientConfig: client.Config{Address: client.DefaultAddress, Timeout: client.DefaultTimeout},
		registry:     v1alpha1.NewRegistry(),
	}
	if address, ok := os.LookupEnv(config.EnvAddress); ok && address != "" {
		s.clientConfig.Address = address
	}

	rootCmd := &cobra.Command{
		Use:   "yzctl",
		Short: "yzctl manages yangtze resources",
		Long: `yzctl talks to a yangtze API server to list, get, create and delete
fabrics and switches.

Supported resource types:
  fabrics, fabric, fab   - Switch fabrics
  switches, switch, sw   - Switches`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return s.connect()
		},
	}

	rootCmd.PersistentFlags().AddFlagSet(flags.ClientFlagsVar(&s.clientConfig))

	rootCmd.AddCommand(
		newGetCommand(s),
		newCreateCommand(s),
		newDeleteCommand(s),
	)
	return rootCmd
}

// connect binds a client per kind and wraps them for the handlers.
func (s *session) connect() error {
	c, err := client.New(s.clientConfig)
	if err != nil {
		return err
	}
	fabrics, err := client.For[v1alpha1.Fabric](c, v1alpha1.FabricVersionKind)
	if err != nil {
		return err
	}
	switches, err := client.For[v1alpha1.Switch](c, v1alpha1.SwitchVersionKind)
	if err != nil {
		return err
	}

	set := handlers.NewSet(s.registry)
	if err := set.Add(handlers.For[v1alpha1.Fabric](v1alpha1.FabricInfo, fabrics)); err != nil {
		return err
	}
	if err := set.Add(handlers.For[v1alpha1.Switch](v1alpha1.SwitchInfo, switches)); err != nil {
		return err
	}
	s.factory = handlers.NewHandlerFactory(set)
	return nil
}

// Package flags provides the pflag sets shared by yzctl commands, each bound
// to a config struct.
package flags

import (
	"github.com/spf13/pflag"

	"github.com/dtomasi/yangtze/core/pkg/client"
)

// OutputFlagsVar returns flags for output formatting bound to a config struct
func OutputFlagsVar(config *OutputConfig) *pflag.FlagSet {
	flags := pflag.NewFlagSet("output", pflag.ContinueOnError)

	flags.StringVarP(&config.Output, FlagOutput, FlagOutputShort, config.Output, "Output format. One of: table|wide|json|yaml|name")
	flags.BoolVar(&config.NoHeaders, FlagNoHeaders, config.NoHeaders, "Don't print headers (default print headers)")
	flags.BoolVar(&config.ShowLabels, FlagShowLabels, config.ShowLabels, "When printing, show all labels as the last column (default hide labels column)")

	return flags
}

// SelectorFlagsVar returns flags for resource selection bound to a config struct
func SelectorFlagsVar(config *SelectorConfig) *pflag.FlagSet {
	flags := pflag.NewFlagSet("selector", pflag.ContinueOnError)

	flags.StringVarP(&config.Namespace, FlagNamespace, FlagNamespaceShort, config.Namespace, "The namespace scope for this request")
	flags.BoolVarP(&config.AllNamespaces, FlagAllNamespaces, FlagAllNamespacesShort, config.AllNamespaces, "If present, list the requested objects across all namespaces")
	flags.StringVar(&config.Name, FlagName, config.Name, "Only list objects with this name")
	flags.StringVar(&config.Where, FlagWhere, config.Where, "CEL expression over self that listed objects must satisfy (e.g. --where \"self.status.state == 'ready'\")")

	return flags
}

// CreateFlagsVar returns flags specific to create operations bound to a config struct
func CreateFlagsVar(config *CreateConfig) *pflag.FlagSet {
	flags := pflag.NewFlagSet("create", pflag.ContinueOnError)

	flags.StringSliceVarP(&config.Filenames, FlagFilename, FlagFilenameShort, config.Filenames, "Manifest files to create resources from, - reads stdin")

	return flags
}

// DeleteFlagsVar returns flags specific to delete operations bound to a config struct
func DeleteFlagsVar(config *DeleteConfig) *pflag.FlagSet {
	flags := pflag.NewFlagSet("delete", pflag.ContinueOnError)

	flags.BoolVar(&config.IgnoreNotFound, FlagIgnoreNotFound, config.IgnoreNotFound, "If the requested object does not exist the command will return exit code 0")

	return flags
}

// ClientFlagsVar returns the connection flags bound to a client configuration
func ClientFlagsVar(config *client.Config) *pflag.FlagSet {
	flags := pflag.NewFlagSet("client", pflag.ContinueOnError)

	flags.StringVarP(&config.Address, FlagServer, FlagServerShort, config.Address, "Base URL of the yangtze API server")
	flags.DurationVar(&config.Timeout, FlagRequestTimeout, config.Timeout, "Timeout for a single API call")

	return flags
}

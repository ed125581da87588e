package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dtomasi/yangtze/cli-runtime/flags"
	"github.com/dtomasi/yangtze/cli-runtime/handlers"
	"github.com/dtomasi/yangtze/cli-runtime/printers"
)

// newGetCommand creates the get command
func newGetCommand(s *session) *cobra.Command {
	outputConfig := flags.NewOutputConfig()
	selectorConfig := flags.NewSelectorConfig()

	cmd := &cobra.Command{
		Use:     "get TYPE [ID]",
		Aliases: []string{"list"},
		Short:   "Display one or many resources",
		Long: `Display one resource by id, or list resources of a type.

Output formats:
  -o table    - Human-readable table (default)
  -o wide     - Table including object ids
  -o json     - JSON format
  -o yaml     - YAML format
  -o name     - Resource names only`,
		Example: `  # List the fabrics of the default namespace
  yzctl get fabrics

  # List ready switches in every namespace as YAML
  yzctl get sw -A --where "self.status.state == 'ready'" -o yaml

  # Get one fabric by id
  yzctl get fabric 9b2f3c4e-0d7a-4f55-9a0e-4e1c2b7d8a61 -o json`,
		Args: cobra.RangeArgs(1, 2),
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return outputConfig.Validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &handlers.GetRequest{
				Resource: args[0],
				Selector: selectorConfig.NamespaceName(),
				Where:    selectorConfig.Where,
			}
			if len(args) > 1 {
				req.ID = args[1]
			}

			resp, err := s.factory.Get().Handle(cmd.Context(), req)
			if err != nil {
				return err
			}

			printer, err := outputConfig.Printer(printers.RegistryColumns{Registry: s.registry})
			if err != nil {
				return err
			}
			if !resp.IsCollection {
				return printer.PrintObj(resp.Object, cmd.OutOrStdout())
			}
			if len(resp.Objects) == 0 && outputConfig.Output != printers.FormatJSON {
				cmd.PrintErrf("No %s found.\n", resp.Info.Plural)
				return nil
			}
			return printer.PrintList(resp.Objects, cmd.OutOrStdout())
		},
	}

	cmd.Flags().AddFlagSet(flags.OutputFlagsVar(outputConfig))
	cmd.Flags().AddFlagSet(flags.SelectorFlagsVar(selectorConfig))

	return cmd
}

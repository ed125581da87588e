package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dtomasi/yangtze/cli-runtime/flags"
	"github.com/dtomasi/yangtze/cli-runtime/handlers"
	"github.com/dtomasi/yangtze/cli-runtime/printers"
)

// newDeleteCommand creates the delete command
func newDeleteCommand(s *session) *cobra.Command {
	deleteConfig := flags.NewDeleteConfig()

	cmd := &cobra.Command{
		Use:   "delete TYPE ID [ID...]",
		Short: "Delete resources by id",
		Example: `  # Delete two switches
  yzctl delete sw 1f0c... 7a2e...`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := s.factory.Delete().Handle(cmd.Context(), &handlers.DeleteRequest{
				Resource:       args[0],
				IDs:            args[1:],
				IgnoreNotFound: deleteConfig.IgnoreNotFound,
			})
			if resp != nil {
				if printErr := printers.NewNamePrinter().PrintList(resp.Deleted, cmd.OutOrStdout()); printErr != nil && err == nil {
					err = printErr
				}
			}
			return err
		},
	}

	cmd.Flags().AddFlagSet(flags.DeleteFlagsVar(deleteConfig))

	return cmd
}

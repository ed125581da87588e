package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dtomasi/yangtze/cli-runtime/flags"
	"github.com/dtomasi/yangtze/cli-runtime/handlers"
	"github.com/dtomasi/yangtze/cli-runtime/printers"
	"github.com/dtomasi/yangtze/core/pkg/codec"
	"github.com/dtomasi/yangtze/core/pkg/storage"
)

// newCreateCommand creates the create command
func newCreateCommand(s *session) *cobra.Command {
	createConfig := flags.NewCreateConfig()
	outputConfig := flags.NewOutputConfig()
	outputConfig.Output = printers.FormatName

	cmd := &cobra.Command{
		Use:   "create -f FILENAME",
		Short: "Create resources from YAML or JSON manifests",
		Long: `Create resources from YAML or JSON manifests. A file may hold several
documents separated by "---" lines. Creation stops at the first failure.`,
		Example: `  # Create a fabric and its switches
  yzctl create -f fabric.yaml

  # Create from stdin
  cat switches.yaml | yzctl create -f -`,
		Args: cobra.NoArgs,
		PreRunE: func(_ *cobra.Command, _ []string) error {
			if len(createConfig.Filenames) == 0 {
				return errors.New("at least one manifest is required, use -f")
			}
			return outputConfig.Validate()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var manifests []storage.Object
			for _, name := range createConfig.Filenames {
				objs, err := readManifests(cmd.InOrStdin(), name)
				if err != nil {
					return err
				}
				manifests = append(manifests, objs...)
			}

			printer, err := outputConfig.Printer(printers.RegistryColumns{Registry: s.registry})
			if err != nil {
				return err
			}

			resp, err := s.factory.Create().Handle(cmd.Context(), &handlers.CreateRequest{Manifests: manifests})
			if resp != nil && len(resp.Created) > 0 {
				if printErr := printer.PrintList(resp.Created, cmd.OutOrStdout()); printErr != nil && err == nil {
					err = printErr
				}
			}
			return err
		},
	}

	cmd.Flags().AddFlagSet(flags.CreateFlagsVar(createConfig))
	cmd.Flags().AddFlagSet(flags.OutputFlagsVar(outputConfig))

	return cmd
}

// readManifests decodes every document of the named file, "-" being stdin.
func readManifests(stdin io.Reader, name string) ([]storage.Object, error) {
	var (
		data []byte
		err  error
	)
	if name == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	objs, err := codec.DecodeManifests(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return objs, nil
}

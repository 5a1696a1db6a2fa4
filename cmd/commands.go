package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/jsonlv/internal/cel"
	"github.com/oakwood-commons/jsonlv/internal/config"
	"github.com/oakwood-commons/jsonlv/pkg/core"
	"github.com/oakwood-commons/jsonlv/pkg/logger"
	"github.com/oakwood-commons/jsonlv/pkg/settings"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			v := settings.VersionInformation
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (commit %s, built %s, %s)\n",
				settings.CliBinaryName, v.BuildVersion, v.Commit, v.BuildTime, runtime.Version())
		},
	}
}

// newKeysCmd lists every dot-separated key path found in the input, sorted.
func newKeysCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "keys [file]",
		Short: "List the key paths found in the records",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath(root.run.ConfigFile))
			if err != nil {
				return err
			}
			session, err := core.New(
				core.WithLogger(*logger.FromContext(cmd.Context())),
				core.WithMaxDepth(cfg.MaxDepth),
			)
			if err != nil {
				return err
			}
			loaded, err := root.ingest(cmd, session, args)
			if err != nil {
				return err
			}
			if !loaded {
				return cmd.Help()
			}
			root.reportSkipped(cmd.ErrOrStderr(), session)
			for _, path := range session.FilterOptions() {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}
}

// newConfigCmd prints the effective configuration.
func newConfigCmd(root *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the embedded defaults merged with the config file. The output can be
saved as ~/.config/jsonlv/config.yaml and edited.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "yaml" && format != "toml" {
				return fmt.Errorf("unknown config format %q (want yaml or toml)", format)
			}
			cfg, err := config.Load(resolveConfigPath(root.run.ConfigFile))
			if err != nil {
				return err
			}
			data, err := config.Encode(cfg, format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format: yaml or toml")
	return cmd
}

// newFunctionsCmd lists the functions callable from --where expressions.
func newFunctionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "functions",
		Short: "List the CEL functions available to --where",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := cel.NewEvaluator()
			if err != nil {
				return err
			}
			for _, name := range e.Functions() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

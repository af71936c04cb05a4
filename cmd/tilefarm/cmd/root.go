package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/armadaproject/tilefarm/internal/common"
	"github.com/armadaproject/tilefarm/internal/tilefarmctl"
)

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tilefarm",
		Short: "tilefarm partitions a sky survey into tiles and farms out their analysis.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			format, err := cmd.Flags().GetString("log-format")
			if err != nil {
				return err
			}
			level, err := cmd.Flags().GetString("log-level")
			if err != nil {
				return err
			}
			return common.ConfigureLogFormat(format, level)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addGlobalFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		farmCmd(),
		queryCmd(),
		runTileCmd(),
		tilesCmd(),
		versionCmd(),
	)
	return cmd
}

func addGlobalFlags(flags *pflag.FlagSet) {
	flags.String("config", tilefarmctl.DefaultConfigPath, "Path to the farm configuration file")
	flags.String("log-format", "plain", "Log format: plain, text or json")
	flags.String("log-level", "info", "Log level")
}

func initParams(cmd *cobra.Command, params *tilefarmctl.Params) error {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	params.ConfigPath = configPath
	return nil
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/armadaproject/tilefarm/internal/tilefarmctl"
)

func versionCmd() *cobra.Command {
	a := tilefarmctl.New()
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.Out = cmd.OutOrStdout()
			return a.Version()
		},
	}
	return cmd
}

package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	rootCmd := &cobra.Command{
		Use:           "rockola",
		Short:         "Bulk media converter and catalog builder for Rockola Digital",
		Version:       version + " (" + commit + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newConvertCommand(&configFlag))
	rootCmd.AddCommand(newCheckCommand(&configFlag))
	rootCmd.AddCommand(newScanCommand(&configFlag))
	rootCmd.AddCommand(newCatalogCommand(&configFlag))
	rootCmd.AddCommand(newLauncherCommand(&configFlag))
	rootCmd.AddCommand(newHistoryCommand(&configFlag))
	rootCmd.AddCommand(newConfigCommand(&configFlag))

	return rootCmd
}

package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var envFile string
	cc := newCLIContext(&envFile)

	rootCmd := &cobra.Command{
		Use:           "scanlist",
		Short:         "ScanList catalog and scan CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before reading configuration")

	rootCmd.AddCommand(newLoadCommand(cc))
	rootCmd.AddCommand(newLookupCommand(cc))
	rootCmd.AddCommand(newClearCommand(cc))
	rootCmd.AddCommand(newInfoCommand(cc))
	rootCmd.AddCommand(newScanCommand(cc))

	return rootCmd
}

package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

// Version is reported by /health and the version command
const Version = "1.0.0"

func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "aira",
		Short:        "AIRA logistics support gateway",
		Long:         "aira answers customer questions about orders, deliveries and the FAQ over web chat and WhatsApp.",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newIngestCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := cmd.OutOrStdout().Write([]byte(Version + "\n"))
			return err
		},
	}
}

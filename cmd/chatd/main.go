package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "chatd",
		Short: "Chat backend settings and model registry service",
		Long: `chatd stores per-user chat settings, resolves which models each user
can reach with their provider keys and relays chat requests to them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	rootCmd.AddCommand(
		serveCmd(),
		migrateCmd(),
		keygenCmd(),
		modelsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

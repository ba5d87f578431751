package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	// build time date
	buildDate = "unknown"
)

func main() {
	var flags serveFlags

	rootCmd := &cobra.Command{
		Use:   "cadenza",
		Short: "Cadenza MCP bridge for embedded MIDI playback devices",
		Long: `Cadenza is an MCP server that uploads monophonic MIDI sequences to an
embedded playback device over HTTP and reports its transport status.`,
		Version: fmt.Sprintf("%s (built: %s)", version, buildDate),
		// Default to serve command when no subcommand is provided
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(flags)
		},
	}

	// Serve flags are also available on the root command so that
	// "cadenza --device-base-url ..." works without a subcommand
	addServeFlags(rootCmd, &flags)

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newInitCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

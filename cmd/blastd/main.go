package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "blastd",
		Short:         "HTTP load generation service and CLI",
		Long:          "blastd dispatches batches of HTTP requests against a target and reports latency statistics.\nRun it as a long-lived API server (serve) or fire a single run from the command line (run).",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newRunCmd())
	return root
}

package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var serverUrl *string

var rootCmd = &cobra.Command{
	Use:   "hacctl",
	Short: "hacctl talks to a running hacproxy server from the terminal.",
}

func init() {
	serverUrl = rootCmd.PersistentFlags().String(
		"server",
		"http://localhost:8000",
		"The base url of the hacproxy server.",
	)
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

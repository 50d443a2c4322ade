package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "sigex",
	Short:        "sigex — fetch, index and match threat signals",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `sigex keeps local copies of signal sets shared by exchange APIs,
builds match indexes from them under ~/.sigex/, and matches content
hashes against everything it has fetched.`,
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

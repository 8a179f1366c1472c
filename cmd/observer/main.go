// Package main implements the observer CLI entry point and root
// command.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	verbose    bool
	policyPath string
	logger     *zap.Logger
)

// rootCmd is the observer CLI's base command.
var rootCmd = &cobra.Command{
	Use:   "observer",
	Short: "Runtime behavior verification against a promise manifest",
	Long: `observer drives a headless browser through a PromiseManifest's
expectations and reports, for each one, whether the application
acknowledged it, stayed silent, or showed a success signal while an
error occurred underneath.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&policyPath, "policy", "", "Path to a policy YAML file (defaults to built-in calibration)")

	rootCmd.AddCommand(scanCmd, verifyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

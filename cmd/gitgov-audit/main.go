// Command gitgov-audit scans a repository for PII, credentials, and secret
// leakage and reports findings as text, JSON, or SARIF.
package main

import (
	"fmt"
	"os"

	"github.com/gitgovernance/audit/internal/telemetry"
	"github.com/spf13/cobra"
)

// Version and GitCommit are set via -ldflags at release build time.
var (
	Version   = "dev"
	GitCommit = "none"
)

var disableMetrics bool
var verbose bool

var rootCmd = &cobra.Command{
	Use:           "gitgov-audit",
	Short:         "Static auditor for PII, credentials, and secret leakage",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.LoadEnvFile()
		telemetry.Init(disableMetrics)
		telemetry.SetVersion(Version)

		if verbose {
			fmt.Fprintf(os.Stderr, "gitgov-audit %s (%s)\n", Version, GitCommit)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&disableMetrics, "disable-metrics", false, "disable anonymous usage telemetry")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print diagnostic information to stderr")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(waiveCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command; main's sole job is to call this and map
// the result to a process exit code.
func Execute() error {
	return rootCmd.Execute()
}

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		// The CLI surface has only two exit codes: 0 and 1. Any
		// unrecoverable initialization or execution error exits 1, the
		// same code the gate uses for a failed scan.
		os.Exit(1)
	}
}

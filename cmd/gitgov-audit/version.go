package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the gitgov-audit version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("gitgov-audit %s (%s)\n", Version, GitCommit)
		return nil
	},
}

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gitgovernance/audit/internal/config"
	"github.com/gitgovernance/audit/internal/doctor"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check Record Store, Actor Service, VCS, and LLM endpoint reachability",
	Long: `Doctor runs environment and connectivity checks without performing a
scan: it reports whether the Record Store, Actor Service, VCS binary, and
LLM endpoint are reachable.`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	diag := doctor.Run(ctx, cfg, Version)

	fmt.Printf("gitgov-audit doctor — %s/%s, go%s\n\n", diag.System.OS, diag.System.Arch, diag.System.Go)

	failed := false
	for _, r := range diag.Results {
		fmt.Printf("[%-4s] %-16s %s\n", r.Status, r.Name, r.Message)
		if r.Detail != "" {
			fmt.Printf("         %s\n", r.Detail)
		}
		if r.Status == "FAIL" {
			failed = true
		}
	}

	if failed {
		return fmt.Errorf("one or more checks failed")
	}
	return nil
}

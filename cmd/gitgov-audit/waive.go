package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/gitgovernance/audit/internal/actor"
	"github.com/gitgovernance/audit/internal/config"
	"github.com/gitgovernance/audit/internal/model"
	"github.com/gitgovernance/audit/internal/recordstore"
	"github.com/gitgovernance/audit/internal/telemetry"
	"github.com/gitgovernance/audit/internal/waiver"
	"github.com/spf13/cobra"
)

var waiveCmd = &cobra.Command{
	Use:   "waive [fingerprint]",
	Short: "Create or list waivers against findings",
	Long: `Waive creates an approval record acknowledging a finding by its
fingerprint, or with --list prints every currently active waiver.

Examples:
  gitgov-audit waive 3f9a1c2b... --justification "tracked in PROJ-412"
  gitgov-audit waive --list`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWaive,
}

func init() {
	waiveCmd.Flags().String("justification", "", "reason the finding is acknowledged (required unless --list)")
	waiveCmd.Flags().String("execution-id", "", "identifier of the execution the waiver is scoped to")
	waiveCmd.Flags().String("related-task-id", "", "task identifier tracking remediation, if any")
	waiveCmd.Flags().Int64("expires-at", 0, "unix timestamp after which the waiver no longer applies (0 = never)")
	waiveCmd.Flags().Bool("list", false, "list currently active waivers instead of creating one")
}

func runWaive(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := openRecordStore(cfg)
	if err != nil {
		return fmt.Errorf("open record store: %w", err)
	}
	defer store.Close()

	author := &waiver.Author{
		Store:  store,
		Actors: actor.EnvService{EnvVar: cfg.Actor.EnvVar},
	}

	if list, _ := cmd.Flags().GetBool("list"); list {
		return listWaivers(author)
	}

	if len(args) != 1 {
		return fmt.Errorf("waive requires a finding fingerprint (or --list)")
	}
	fingerprint := args[0]

	justification, _ := cmd.Flags().GetString("justification")
	if justification == "" {
		return fmt.Errorf("--justification is required")
	}
	executionID, _ := cmd.Flags().GetString("execution-id")
	relatedTaskID, _ := cmd.Flags().GetString("related-task-id")
	expiresAtFlag, _ := cmd.Flags().GetInt64("expires-at")

	var expiresAt *int64
	if expiresAtFlag != 0 {
		expiresAt = &expiresAtFlag
	}

	req := waiver.CreateRequest{
		Finding:       model.Finding{Fingerprint: fingerprint},
		ExecutionID:   executionID,
		Justification: justification,
		ExpiresAt:     expiresAt,
		RelatedTaskID: relatedTaskID,
	}

	if _, err := author.Create(req); err != nil {
		return fmt.Errorf("create waiver: %w", err)
	}

	telemetry.ReportEvent(telemetry.WaiverCreated)
	fmt.Printf("waived %s\n", fingerprint)
	return nil
}

func listWaivers(author *waiver.Author) error {
	active, err := author.ListActive()
	if err != nil {
		return fmt.Errorf("list waivers: %w", err)
	}
	if len(active) == 0 {
		fmt.Println("no active waivers")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FINGERPRINT\tRULE\tFILE\tLINE\tEXPIRES")
	for _, wv := range active {
		expires := "never"
		if wv.ExpiresAt != nil {
			expires = fmt.Sprintf("%d", *wv.ExpiresAt)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", wv.Fingerprint, wv.RuleID, wv.File, wv.Line, expires)
	}
	return w.Flush()
}

func openRecordStore(cfg config.Config) (*recordstore.SQLite, error) {
	path := cfg.RecordStore.Path
	if path == "" {
		path = ".gitgov/audit.db"
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create record store directory: %w", err)
		}
	}
	return recordstore.Open(path)
}

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gitgovernance/audit/internal/config"
	"github.com/gitgovernance/audit/internal/detect"
	"github.com/gitgovernance/audit/internal/fileaccess"
	"github.com/gitgovernance/audit/internal/model"
	"github.com/gitgovernance/audit/internal/output"
	"github.com/gitgovernance/audit/internal/pipeline"
	"github.com/gitgovernance/audit/internal/recordstore"
	"github.com/gitgovernance/audit/internal/scope"
	"github.com/gitgovernance/audit/internal/telemetry"
	"github.com/gitgovernance/audit/internal/vcs"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Audit a repository for PII, credentials, and secret leakage",
	Long: `Scan resolves the requested file scope, runs the regex, heuristic, and
(if configured) semantic detection tiers over it, subtracts active waivers,
and emits the result as text, JSON, or SARIF.

Examples:
  gitgov-audit scan .
  gitgov-audit scan . --output sarif --fail-on critical
  gitgov-audit scan . --include "src/**" --exclude "**/*_test.go"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringSlice("scope", nil, "glob patterns selecting files to audit (repeatable)")
	scanCmd.Flags().StringSlice("include", nil, "alias for --scope")
	scanCmd.Flags().StringSlice("exclude", nil, "glob patterns excluded from the scope")
	scanCmd.Flags().String("changed-since", "", "restrict the scope to files changed since this git ref or PR")
	scanCmd.Flags().String("output", "text", "output format: text, json, sarif")
	scanCmd.Flags().String("fail-on", "", "minimum severity that causes a non-zero exit: critical, high, medium, low, none")
	scanCmd.Flags().StringSlice("detector", nil, "detector tiers to run: regex, heuristic, llm (default: config-driven)")
	scanCmd.Flags().Bool("quiet", false, "only print critical findings")
	scanCmd.Flags().Bool("summary", false, "print only the summary, no individual findings")
	scanCmd.Flags().String("group-by", "file", "group findings by: file, severity, category")
	scanCmd.Flags().Int("max-findings", 0, "cap the number of findings printed in text output (0 = unlimited)")
	scanCmd.Flags().Bool("json", false, "shorthand for --output json")
}

func runScan(cmd *cobra.Command, args []string) error {
	projectDir := "."
	if len(args) == 1 {
		projectDir = args[0]
	}

	cfg, err := config.Load(projectDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	include, _ := cmd.Flags().GetStringSlice("scope")
	if alias, _ := cmd.Flags().GetStringSlice("include"); len(alias) > 0 {
		include = append(include, alias...)
	}
	if len(include) == 0 {
		include = []string{"**/*"}
	}
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	changedSince, _ := cmd.Flags().GetString("changed-since")

	outputFormat, _ := cmd.Flags().GetString("output")
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		outputFormat = "json"
	}

	failOnFlag, _ := cmd.Flags().GetString("fail-on")
	if failOnFlag == "" {
		failOnFlag = cfg.DefaultFailOn
	}
	failOn, err := output.ParseFailOn(failOnFlag)
	if err != nil {
		telemetry.ReportEventWithProperties(telemetry.ScanFailed, map[string]interface{}{"reason": "invalid_fail_on"})
		return err
	}

	detectors, _ := cmd.Flags().GetStringSlice("detector")
	applyDetectorOverride(&cfg, detectors)

	quiet, _ := cmd.Flags().GetBool("quiet")
	summary, _ := cmd.Flags().GetBool("summary")
	groupByFlag, _ := cmd.Flags().GetString("group-by")
	maxFindings, _ := cmd.Flags().GetInt("max-findings")

	telemetry.ReportEventWithProperties(telemetry.ScanStarted, map[string]interface{}{
		"output_format": outputFormat,
		"fail_on":       string(failOn),
	})

	start := time.Now()

	fa, err := fileaccess.NewLocal(projectDir)
	if err != nil {
		telemetry.ReportEventWithProperties(telemetry.ScanFailed, map[string]interface{}{"reason": "fileaccess_init"})
		return fmt.Errorf("open project directory: %w", err)
	}

	var provider vcs.Provider
	if cfg.VCS.Provider == "github" {
		provider = &vcs.GitHub{
			Token:    os.Getenv("GITGOV_AUDIT_GITHUB_TOKEN"),
			Owner:    cfg.VCS.GitHubOrg,
			Repo:     cfg.VCS.GitHubRepo,
			PRNumber: cfg.VCS.GitHubPR,
		}
	} else {
		provider = &vcs.Git{ProjectRoot: projectDir}
	}

	var store *recordstore.SQLite
	if cfg.RecordStore.DSN == "" && cfg.RecordStore.Path != "" {
		if dir := filepath.Dir(cfg.RecordStore.Path); dir != "." && dir != "" {
			_ = os.MkdirAll(dir, 0o755)
		}
		store, err = recordstore.Open(cfg.RecordStore.Path)
		if err != nil {
			// Record Store unreachable: degrade-open, scan without waivers.
			store = nil
		} else {
			defer store.Close()
		}
	}

	orch := buildOrchestrator(cfg)

	p := &pipeline.AuditPipeline{
		Resolver:     &scope.Resolver{FA: fa, VCS: provider},
		FA:           fa,
		Orchestrator: orch,
		Logger:       telemetry.NewLogger(cfg.LogLevel),
	}
	if store != nil {
		p.Store = store
	}

	if isatty.IsTerminal(os.Stderr.Fd()) {
		bar := progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("scanning"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stderr) }),
		)
		p.Progress = func(done, total int) {
			bar.Describe(fmt.Sprintf("scanning (%d/%d)", done, total))
			_ = bar.Add(1)
		}
	}

	result, err := p.Audit(context.Background(), pipeline.Options{
		Scope: scope.Request{
			Include:      include,
			Exclude:      exclude,
			ChangedSince: changedSince,
			BaseDir:      ".",
		},
		BaseDir: projectDir,
	})
	hadErrors := err != nil
	if hadErrors {
		telemetry.ReportEventWithProperties(telemetry.ScanFailed, map[string]interface{}{"reason": "audit_error"})
		return fmt.Errorf("audit: %w", err)
	}

	groupBy := output.GroupByFile
	switch strings.ToLower(groupByFlag) {
	case "severity":
		groupBy = output.GroupBySeverity
	case "category":
		groupBy = output.GroupByCategory
	}

	opts := &output.Options{
		Quiet:       quiet,
		Summary:     summary,
		GroupBy:     groupBy,
		MaxFindings: maxFindings,
	}
	info := output.ScanInfo{
		Target:        projectDir,
		Version:       Version,
		DurationMS:    time.Since(start).Milliseconds(),
		RulesExecuted: len(result.Detectors),
	}

	if err := emit(outputFormat, result, opts, info); err != nil {
		return fmt.Errorf("emit output: %w", err)
	}

	exitCode := output.DetermineExitCode(result, failOn, hadErrors)

	telemetry.ReportEventWithProperties(telemetry.ScanCompleted, map[string]interface{}{
		"duration_ms":    time.Since(start).Milliseconds(),
		"findings_count": len(result.Findings),
		"scanned_files":  result.ScannedFiles,
		"output_format":  outputFormat,
		"exit_code":      int(exitCode),
	})

	if exitCode != output.ExitCodeSuccess {
		os.Exit(int(exitCode))
	}
	return nil
}

func applyDetectorOverride(cfg *config.Config, detectors []string) {
	if len(detectors) == 0 {
		return
	}
	cfg.Detectors = config.DetectorsConfig{}
	for _, d := range detectors {
		switch strings.ToLower(strings.TrimSpace(d)) {
		case "regex":
			cfg.Detectors.Regex = true
		case "heuristic":
			cfg.Detectors.Heuristic = true
		case "llm":
			cfg.Detectors.LLM = true
		}
	}
}

func buildOrchestrator(cfg config.Config) *detect.Orchestrator {
	var llm *detect.LLM
	var gate *detect.QuotaGate
	if cfg.Detectors.LLM && cfg.LLM.Enabled {
		llmCfg := detect.LLMConfig{
			Enabled:      cfg.LLM.Enabled,
			Endpoint:     cfg.LLM.Endpoint,
			APIKeyEnvVar: cfg.LLM.APIKeyEnvVar,
			QuotaType:    detect.QuotaType(cfg.LLM.QuotaType),
		}
		if cfg.LLM.RemainingUse > 0 {
			remaining := cfg.LLM.RemainingUse
			llmCfg.RemainingUses = &remaining
		}
		if cfg.LLM.ExpiresAt > 0 {
			expiry := cfg.LLM.ExpiresAt
			llmCfg.ExpiresAt = &expiry
		}
		llm = detect.NewLLM(llmCfg)
		gate = detect.NewQuotaGate(llmCfg, nil)
	}

	orch := detect.NewOrchestrator(cfg.Detectors.Heuristic, llm, gate)
	if len(cfg.RuleOverrides) > 0 {
		overrides := make(map[string]detect.RuleOverride, len(cfg.RuleOverrides))
		for _, ro := range cfg.RuleOverrides {
			overrides[ro.RuleID] = detect.RuleOverride{
				Severity: model.Severity(ro.Severity),
				Disabled: ro.Disabled,
			}
		}
		orch.RuleOverrides = overrides
	}
	return orch
}

func emit(format string, result model.AuditResult, opts *output.Options, info output.ScanInfo) error {
	switch strings.ToLower(format) {
	case "json":
		return output.NewJSONFormatter(os.Stdout).Format(result, info)
	case "sarif":
		return output.NewSARIFFormatter(os.Stdout).Format(result)
	default:
		return output.NewTextFormatter(os.Stdout, opts).Format(result, info)
	}
}

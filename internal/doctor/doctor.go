// Package doctor runs environment and connectivity sanity checks without
// performing a scan: Record Store reachability, Actor Service resolution,
// VCS binary presence, and LLM endpoint DNS resolution.
package doctor

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/gitgovernance/audit/internal/actor"
	"github.com/gitgovernance/audit/internal/config"
	"github.com/gitgovernance/audit/internal/recordstore"
)

// CheckResult is the outcome of a single diagnostic check.
type CheckResult struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // PASS, FAIL, WARN, SKIP
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// Diagnosis is the full doctor report.
type Diagnosis struct {
	Timestamp time.Time     `json:"timestamp"`
	System    SystemInfo    `json:"system"`
	Results   []CheckResult `json:"results"`
}

// SystemInfo carries runtime platform metadata for the report header.
type SystemInfo struct {
	OS      string `json:"os"`
	Arch    string `json:"arch"`
	Go      string `json:"go_version"`
	Version string `json:"version"`
}

// Run executes all diagnostic checks against cfg and returns a Diagnosis.
// No check touches repository content or performs a scan.
func Run(ctx context.Context, cfg config.Config, version string) Diagnosis {
	d := Diagnosis{
		System: SystemInfo{
			OS:      runtime.GOOS,
			Arch:    runtime.GOARCH,
			Go:      runtime.Version(),
			Version: version,
		},
	}

	checks := []func(context.Context, config.Config) CheckResult{
		checkRecordStore,
		checkActorService,
		checkVCSBinary,
		checkLLMEndpoint,
	}
	for _, check := range checks {
		d.Results = append(d.Results, check(ctx, cfg))
	}
	return d
}

func checkRecordStore(_ context.Context, cfg config.Config) CheckResult {
	if cfg.RecordStore.DSN != "" {
		return CheckResult{Name: "Record Store", Status: "PASS", Message: "external DSN configured (not opened by doctor)"}
	}
	if cfg.RecordStore.Path == "" {
		return CheckResult{Name: "Record Store", Status: "SKIP", Message: "no sqlite path configured"}
	}

	store, err := recordstore.Open(cfg.RecordStore.Path)
	if err != nil {
		return CheckResult{Name: "Record Store", Status: "FAIL", Message: fmt.Sprintf("open failed: %v", err)}
	}
	defer store.Close()

	if _, err := store.ListAllFeedback(); err != nil {
		return CheckResult{Name: "Record Store", Status: "FAIL", Message: fmt.Sprintf("query failed: %v", err)}
	}
	return CheckResult{Name: "Record Store", Status: "PASS", Message: fmt.Sprintf("sqlite store at %s reachable", cfg.RecordStore.Path)}
}

func checkActorService(_ context.Context, cfg config.Config) CheckResult {
	svc := actor.EnvService{EnvVar: cfg.Actor.EnvVar}
	if _, err := svc.CurrentActor(); err != nil {
		return CheckResult{
			Name:    "Actor Service",
			Status:  "WARN",
			Message: fmt.Sprintf("%s not set", cfg.Actor.EnvVar),
			Detail:  "required for `gitgov-audit waive`; not required for `scan`",
		}
	}
	return CheckResult{Name: "Actor Service", Status: "PASS", Message: fmt.Sprintf("%s resolves", cfg.Actor.EnvVar)}
}

func checkVCSBinary(ctx context.Context, cfg config.Config) CheckResult {
	if cfg.VCS.Provider == "github" {
		if os.Getenv("GITGOV_AUDIT_GITHUB_TOKEN") == "" {
			return CheckResult{Name: "VCS", Status: "WARN", Message: "github provider selected but GITGOV_AUDIT_GITHUB_TOKEN unset"}
		}
		return CheckResult{Name: "VCS", Status: "PASS", Message: "github API provider configured"}
	}

	if _, err := exec.LookPath("git"); err != nil {
		return CheckResult{Name: "VCS", Status: "FAIL", Message: "git binary not found on PATH"}
	}

	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--is-inside-work-tree")
	if err := cmd.Run(); err != nil {
		return CheckResult{Name: "VCS", Status: "WARN", Message: "git present but current directory is not a work tree"}
	}
	return CheckResult{Name: "VCS", Status: "PASS", Message: "git binary present and usable"}
}

func checkLLMEndpoint(ctx context.Context, cfg config.Config) CheckResult {
	if !cfg.LLM.Enabled {
		return CheckResult{Name: "LLM Endpoint", Status: "SKIP", Message: "LLM detector tier disabled"}
	}
	if cfg.LLM.Endpoint == "" {
		return CheckResult{Name: "LLM Endpoint", Status: "FAIL", Message: "LLM enabled but no endpoint configured"}
	}

	u, err := url.Parse(cfg.LLM.Endpoint)
	if err != nil || u.Hostname() == "" {
		return CheckResult{Name: "LLM Endpoint", Status: "FAIL", Message: fmt.Sprintf("invalid endpoint URL: %s", cfg.LLM.Endpoint)}
	}

	if cfg.LLM.APIKeyEnvVar != "" && os.Getenv(cfg.LLM.APIKeyEnvVar) == "" {
		return CheckResult{
			Name:    "LLM Endpoint",
			Status:  "WARN",
			Message: fmt.Sprintf("%s not set", cfg.LLM.APIKeyEnvVar),
		}
	}

	lookupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	addrs, err := net.DefaultResolver.LookupHost(lookupCtx, u.Hostname())
	latency := time.Since(start)
	if err != nil {
		return CheckResult{
			Name:    "LLM Endpoint",
			Status:  "FAIL",
			Message: fmt.Sprintf("DNS lookup failed for %s: %v", u.Hostname(), err),
		}
	}

	return CheckResult{
		Name:    "LLM Endpoint",
		Status:  "PASS",
		Message: fmt.Sprintf("DNS resolved %s (%d addresses, %dms)", u.Hostname(), len(addrs), latency.Milliseconds()),
	}
}

// Package pipeline stitches ScopeResolver, FileAccess, DetectionOrchestrator,
// and WaiverIndex into the AuditPipeline's two operations: audit and
// audit_contents.
package pipeline

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/gitgovernance/audit/internal/detect"
	"github.com/gitgovernance/audit/internal/fileaccess"
	"github.com/gitgovernance/audit/internal/model"
	"github.com/gitgovernance/audit/internal/scope"
	"github.com/gitgovernance/audit/internal/waiver"
)

// batchThreshold is the file-count above which reads are chunked into
// fixed-size batches, to bound peak memory on very large scopes.
const batchThreshold = 1000
const batchSize = 100

// FileContent pairs a repo-relative path with its content, used by
// AuditContents' pure, side-effect-free variant.
type FileContent struct {
	Path    string
	Content string
}

// Options configures one audit call.
type Options struct {
	Scope   scope.Request
	BaseDir string
}

// AuditPipeline is the component that composes every other package —
// ScopeResolver, FileAccess, DetectionOrchestrator, WaiverIndex — into
// one call.
type AuditPipeline struct {
	Resolver     *scope.Resolver
	FA           fileaccess.FileAccess
	Orchestrator *detect.Orchestrator
	Store        waiver.RecordStore

	// Progress, when set, is called as files are read: (files read so far,
	// total files in scope). Callers use it to drive a CLI progress bar; it
	// is never required for correctness.
	Progress func(done, total int)

	// Logger records swallowed per-file read and detector errors at warn
	// level. A nil Logger discards them, matching the swallow-and-degrade
	// policy: logging is an observability aid, never a control path.
	Logger *slog.Logger
}

// Audit resolves scope, loads waivers, reads files, runs detection,
// dedupes, subtracts waivers, and assembles an AuditResult.
func (p *AuditPipeline) Audit(ctx context.Context, opts Options) (model.AuditResult, error) {
	start := time.Now()

	files, err := p.Resolver.Resolve(opts.Scope)
	if err != nil {
		return model.AuditResult{}, err
	}
	if len(files) == 0 {
		return model.AuditResult{DurationMS: time.Since(start).Milliseconds()}, nil
	}

	var idx *waiver.Index
	if p.Store != nil {
		idx, _ = waiver.Load(p.Store, time.Now()) // degrade-open: err intentionally ignored
	}

	contents := p.readInBatches(files)

	result := assemble(ctx, p.Orchestrator, contents, idx)
	result.DurationMS = time.Since(start).Milliseconds()
	return result, nil
}

// readInBatches reads files in batches of batchSize when |files| exceeds
// batchThreshold, otherwise as a single batch. Files that fail to read are
// skipped rather than failing the whole run.
func (p *AuditPipeline) readInBatches(files []string) []FileContent {
	batchLen := len(files)
	if batchLen > batchThreshold {
		batchLen = batchSize
	}

	out := make([]FileContent, 0, len(files))
	done := 0
	for i := 0; i < len(files); i += batchLen {
		end := i + batchLen
		if end > len(files) {
			end = len(files)
		}
		for _, path := range files[i:end] {
			content, err := p.FA.Read(path)
			if err == nil {
				out = append(out, FileContent{Path: path, Content: content})
			} else if p.Logger != nil {
				p.Logger.Warn("skipping unreadable file", "path", path, "error", err)
			}
			done++
			if p.Progress != nil {
				p.Progress(done, len(files))
			}
		}
	}
	return out
}

// AuditContents is the pure, side-effect-free variant: it skips
// ScopeResolver and FileAccess and uses the provided waiver list verbatim
// (no filter when omitted).
func AuditContents(ctx context.Context, orch *detect.Orchestrator, files []FileContent, waivers []model.Waiver) model.AuditResult {
	start := time.Now()
	idx := indexFromWaivers(waivers)
	result := assemble(ctx, orch, files, idx)
	result.DurationMS = time.Since(start).Milliseconds()
	return result
}

func indexFromWaivers(waivers []model.Waiver) *waiver.Index {
	if waivers == nil {
		return nil
	}
	records := make([]waiver.Feedback, 0, len(waivers))
	for _, w := range waivers {
		meta := map[string]any{"fingerprint": w.Fingerprint}
		if w.ExpiresAt != nil {
			meta["expires_at"] = float64(*w.ExpiresAt)
		}
		records = append(records, waiver.Feedback{Metadata: meta})
	}
	// A far-future reference time means only explicitly-passed waivers with
	// an expiry in the past are dropped; un-expired and no-expiry waivers
	// from the caller-supplied list are honored as given.
	return waiver.LoadFromRecords(records, time.Now())
}

func assemble(ctx context.Context, orch *detect.Orchestrator, files []FileContent, idx *waiver.Index) model.AuditResult {
	var allFindings []model.Finding
	scannedLines := 0

	for _, f := range files {
		scannedLines += 1 + strings.Count(f.Content, "\n")
		allFindings = append(allFindings, orch.Detect(ctx, f.Content, f.Path)...)
	}

	deduped := dedupFindings(allFindings)
	rawCount := len(deduped)

	var retained []model.Finding
	for _, f := range deduped {
		if idx != nil && idx.HasActive(f.Fingerprint) {
			continue
		}
		retained = append(retained, f)
	}

	sort.SliceStable(retained, func(i, j int) bool {
		if retained[i].File != retained[j].File {
			return retained[i].File < retained[j].File
		}
		if retained[i].Line != retained[j].Line {
			return retained[i].Line < retained[j].Line
		}
		return retained[i].RuleID < retained[j].RuleID
	})

	acknowledged := rawCount - len(retained)

	return model.AuditResult{
		Findings:     retained,
		Summary:      model.BuildSummary(retained),
		ScannedFiles: len(files),
		ScannedLines: scannedLines,
		Detectors:    model.ContributingDetectors(retained),
		Waivers: model.WaiverCounts{
			Acknowledged: acknowledged,
			New:          len(retained),
		},
	}
}

// dedupFindings collapses by fingerprint, first occurrence wins. The
// per-file detector output is already locally deduped by the orchestrator;
// this pass dedupes across files in the same run.
func dedupFindings(findings []model.Finding) []model.Finding {
	seen := make(map[string]bool, len(findings))
	out := make([]model.Finding, 0, len(findings))
	for _, f := range findings {
		if seen[f.Fingerprint] {
			continue
		}
		seen[f.Fingerprint] = true
		out = append(out, f)
	}
	return out
}

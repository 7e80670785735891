// Package waiver loads ApprovalFeedback records from an external Record
// Store and materializes them into an in-memory, fingerprint-keyed index
// the AuditPipeline can query without knowing how feedback is persisted.
package waiver

import (
	"time"

	"github.com/gitgovernance/audit/internal/model"
)

// Feedback is the external ApprovalFeedback record shape. The core reads
// and writes only a small Metadata subset (fingerprint and optional
// expires_at); everything else is opaque to it.
type Feedback struct {
	ID         string
	Type       string
	EntityType string
	EntityID   string
	Status     string
	Content    string
	Metadata   map[string]any
}

// CreatePayload is what WaiverAuthor hands to RecordStore.CreateFeedback.
type CreatePayload struct {
	EntityType string
	EntityID   string
	Type       string
	Status     string
	Content    string
	Metadata   map[string]any
}

// RecordStore is the external capability consumed (never owned) by this
// package: it owns storage and signing, the core owns only the projection.
type RecordStore interface {
	ListAllFeedback() ([]Feedback, error)
	ListFeedbackByEntity(entityID string) ([]Feedback, error)
	CreateFeedback(payload CreatePayload, actorID string) (Feedback, error)
}

// Index is the materialized, fingerprint-keyed set of currently-active
// waivers.
type Index struct {
	active map[string]model.Waiver
}

// Load reads every feedback record from store, drops expired and
// malformed entries, and returns an Index of the survivors keyed by
// fingerprint. On a Record Store error, returns an empty Index and the
// error — callers applying the degrade-open policy should substitute an
// empty Index rather than fail the scan.
func Load(store RecordStore, now time.Time) (*Index, error) {
	records, err := store.ListAllFeedback()
	if err != nil {
		return &Index{active: map[string]model.Waiver{}}, err
	}
	return build(records, now), nil
}

// LoadFromRecords builds an Index directly from an already-fetched record
// list, skipping the RecordStore round-trip — used by callers (such as
// audit_contents) that are handed a waiver list rather than a store.
func LoadFromRecords(records []Feedback, now time.Time) *Index {
	return build(records, now)
}

func build(records []Feedback, now time.Time) *Index {
	idx := &Index{active: make(map[string]model.Waiver, len(records))}
	nowUnix := now.Unix()
	for _, rec := range records {
		w, ok := toWaiver(rec)
		if !ok {
			continue // records without fingerprint metadata are ignored
		}
		if !w.Active(nowUnix) {
			continue
		}
		idx.active[w.Fingerprint] = w
	}
	return idx
}

func toWaiver(rec Feedback) (model.Waiver, bool) {
	fp, ok := rec.Metadata["fingerprint"].(string)
	if !ok || fp == "" {
		return model.Waiver{}, false
	}
	w := model.Waiver{Fingerprint: fp}
	if v, ok := rec.Metadata["rule_id"].(string); ok {
		w.RuleID = v
	}
	if v, ok := rec.Metadata["file"].(string); ok {
		w.File = v
	}
	if v, ok := rec.Metadata["line"].(float64); ok {
		w.Line = int(v)
	}
	if v, ok := rec.Metadata["related_task_id"].(string); ok {
		w.RelatedTaskID = v
	}
	if v, ok := rec.Metadata["expires_at"].(float64); ok {
		expiry := int64(v)
		w.ExpiresAt = &expiry
	}
	return w, true
}

// HasActive reports whether fingerprint is covered by an active waiver.
func (idx *Index) HasActive(fingerprint string) bool {
	if idx == nil {
		return false
	}
	_, ok := idx.active[fingerprint]
	return ok
}

// Len returns the number of active waivers in the index.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.active)
}

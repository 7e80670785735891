package waiver

import (
	"fmt"
	"time"

	"github.com/gitgovernance/audit/internal/actor"
	"github.com/gitgovernance/audit/internal/model"
)

// CreateRequest is the authoring-side request for a single waiver.
type CreateRequest struct {
	Finding       model.Finding
	ExecutionID   string
	Justification string
	ExpiresAt     *int64
	RelatedTaskID string
}

// Author creates new ApprovalFeedback records against the Record Store,
// asserting authorship through the Actor Service rather than the core
// itself supplying an actor id.
type Author struct {
	Store RecordStore
	Actors actor.Service
}

// Create writes one approval record for req. Missing justification or
// fingerprint is a precondition failure surfaced to the caller.
func (a *Author) Create(req CreateRequest) (Feedback, error) {
	if req.Justification == "" {
		return Feedback{}, fmt.Errorf("waiver justification is required")
	}
	if req.Finding.Fingerprint == "" {
		return Feedback{}, fmt.Errorf("waiver requires a finding fingerprint")
	}

	who, err := a.Actors.CurrentActor()
	if err != nil {
		return Feedback{}, fmt.Errorf("resolve current actor: %w", err)
	}

	metadata := map[string]any{
		"fingerprint": req.Finding.Fingerprint,
		"rule_id":     req.Finding.RuleID,
		"file":        req.Finding.File,
		"line":        req.Finding.Line,
	}
	if req.ExpiresAt != nil {
		metadata["expires_at"] = *req.ExpiresAt
	}
	if req.RelatedTaskID != "" {
		metadata["related_task_id"] = req.RelatedTaskID
	}

	payload := CreatePayload{
		EntityType: "execution",
		EntityID:   req.ExecutionID,
		Type:       "approval",
		Status:     "resolved",
		Content:    req.Justification,
		Metadata:   metadata,
	}
	return a.Store.CreateFeedback(payload, who.ID)
}

// CreateBatch creates one record per request; an empty list is a no-op.
func (a *Author) CreateBatch(reqs []CreateRequest) ([]Feedback, error) {
	if len(reqs) == 0 {
		return nil, nil
	}
	out := make([]Feedback, 0, len(reqs))
	for _, req := range reqs {
		f, err := a.Create(req)
		if err != nil {
			return out, err
		}
		out = append(out, f)
	}
	return out, nil
}

// ListActive lists currently-active waivers via the Record Store and Index.
func (a *Author) ListActive() ([]model.Waiver, error) {
	idx, err := Load(a.Store, time.Now())
	if err != nil {
		return nil, err
	}
	out := make([]model.Waiver, 0, idx.Len())
	for _, w := range idx.active {
		out = append(out, w)
	}
	return out, nil
}

package waiver

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	records []Feedback
	created []CreatePayload
	err     error
}

func (s *stubStore) ListAllFeedback() ([]Feedback, error) { return s.records, s.err }
func (s *stubStore) ListFeedbackByEntity(entityID string) ([]Feedback, error) {
	var out []Feedback
	for _, r := range s.records {
		if r.EntityID == entityID {
			out = append(out, r)
		}
	}
	return out, nil
}
func (s *stubStore) CreateFeedback(payload CreatePayload, actorID string) (Feedback, error) {
	s.created = append(s.created, payload)
	return Feedback{ID: fmt.Sprintf("f%d", len(s.created)), Metadata: payload.Metadata}, nil
}

func TestIndexDropsExpiredAndMalformed(t *testing.T) {
	past := float64(100)
	store := &stubStore{records: []Feedback{
		{Metadata: map[string]any{"fingerprint": "fp-active"}},
		{Metadata: map[string]any{"fingerprint": "fp-expired", "expires_at": past}},
		{Metadata: map[string]any{"no_fingerprint": true}},
	}}
	idx, err := Load(store, time.Unix(200, 0))
	require.NoError(t, err)
	assert.True(t, idx.HasActive("fp-active"))
	assert.False(t, idx.HasActive("fp-expired"))
	assert.Equal(t, 1, idx.Len())
}

func TestIndexNoExpiryIsActive(t *testing.T) {
	store := &stubStore{records: []Feedback{
		{Metadata: map[string]any{"fingerprint": "fp1"}},
	}}
	idx, err := Load(store, time.Now())
	require.NoError(t, err)
	assert.True(t, idx.HasActive("fp1"))
}

func TestLoadDegradesOpenOnStoreError(t *testing.T) {
	store := &stubStore{err: fmt.Errorf("store unavailable")}
	idx, err := Load(store, time.Now())
	assert.Error(t, err)
	assert.Equal(t, 0, idx.Len())
	assert.False(t, idx.HasActive("anything"))
}

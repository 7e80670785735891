package recordstore

import (
	"path/filepath"
	"testing"

	"github.com/gitgovernance/audit/internal/waiver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndListFeedback(t *testing.T) {
	s := openTestStore(t)

	rec, err := s.CreateFeedback(waiver.CreatePayload{
		EntityType: "execution",
		EntityID:   "exec-1",
		Type:       "approval",
		Status:     "resolved",
		Content:    "reviewed by compliance",
		Metadata:   map[string]any{"fingerprint": "fp1", "rule_id": "PII-001"},
	}, "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)

	all, err := s.ListAllFeedback()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "fp1", all[0].Metadata["fingerprint"])
}

func TestListFeedbackByEntity(t *testing.T) {
	s := openTestStore(t)

	_, err := s.CreateFeedback(waiver.CreatePayload{
		EntityType: "execution", EntityID: "exec-1", Type: "approval", Status: "resolved",
		Content: "a", Metadata: map[string]any{"fingerprint": "fp1"},
	}, "alice")
	require.NoError(t, err)
	_, err = s.CreateFeedback(waiver.CreatePayload{
		EntityType: "execution", EntityID: "exec-2", Type: "approval", Status: "resolved",
		Content: "b", Metadata: map[string]any{"fingerprint": "fp2"},
	}, "alice")
	require.NoError(t, err)

	only1, err := s.ListFeedbackByEntity("exec-1")
	require.NoError(t, err)
	require.Len(t, only1, 1)
	assert.Equal(t, "fp1", only1[0].Metadata["fingerprint"])
}

func TestMigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	s1, err := Open(path)
	require.NoError(t, err)
	s1.Close()

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	all, err := s2.ListAllFeedback()
	require.NoError(t, err)
	assert.Empty(t, all)
}

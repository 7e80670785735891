package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint("PII-001", "src/a.ts", 1)
	b := Fingerprint("PII-001", "src/a.ts", 1)
	assert.Equal(t, a, b)

	want := sha256.Sum256([]byte("PII-001:src/a.ts:1"))
	assert.Equal(t, hex.EncodeToString(want[:]), a)
}

func TestFingerprintVariesByComponent(t *testing.T) {
	base := Fingerprint("PII-001", "src/a.ts", 1)
	assert.NotEqual(t, base, Fingerprint("PII-002", "src/a.ts", 1))
	assert.NotEqual(t, base, Fingerprint("PII-001", "src/b.ts", 1))
	assert.NotEqual(t, base, Fingerprint("PII-001", "src/a.ts", 2))
}

func TestTruncateSnippetBound(t *testing.T) {
	long := strings.Repeat("a", 400)
	got := TruncateSnippet(long)
	count := 0
	for range got {
		count++
	}
	assert.LessOrEqual(t, count, maxSnippetCodePoints+1) // +1 for ellipsis rune
	assert.Contains(t, got, "…")
}

func TestTruncateSnippetShortUnchanged(t *testing.T) {
	short := "const e = \"x@y.com\";"
	assert.Equal(t, short, TruncateSnippet(short))
}

func TestTruncateSnippetStripsNUL(t *testing.T) {
	withNUL := "abc\x00def"
	got := TruncateSnippet(withNUL)
	assert.NotContains(t, got, "\x00")
	assert.Equal(t, "abcdef", got)
}

func TestWaiverActive(t *testing.T) {
	noExpiry := Waiver{Fingerprint: "f1"}
	assert.True(t, noExpiry.Active(1000))

	future := int64(2000)
	notYetExpired := Waiver{Fingerprint: "f2", ExpiresAt: &future}
	assert.True(t, notYetExpired.Active(1000))

	past := int64(500)
	expired := Waiver{Fingerprint: "f3", ExpiresAt: &past}
	assert.False(t, expired.Active(1000))
}

func TestBuildSummaryConsistency(t *testing.T) {
	findings := []Finding{
		{Severity: SeverityCritical, Category: CategoryPIIFinancial, Detector: DetectorRegex},
		{Severity: SeverityHigh, Category: CategoryPIIEmail, Detector: DetectorRegex},
		{Severity: SeverityMedium, Category: CategoryPIIGeneric, Detector: DetectorHeuristic},
	}
	s := BuildSummary(findings)
	require.Equal(t, 3, s.Total)
	assert.Equal(t, s.Total, s.BySeverity.Sum())
	catSum := 0
	for _, c := range s.ByCategory {
		catSum += c
	}
	assert.Equal(t, s.Total, catSum)
	assert.Equal(t, s.Total, s.ByDetector.Sum())
}

func TestContributingDetectorsOnlyRetained(t *testing.T) {
	findings := []Finding{
		{Detector: DetectorRegex},
		{Detector: DetectorRegex},
	}
	dets := ContributingDetectors(findings)
	assert.Equal(t, []Detector{DetectorRegex}, dets)
}

func TestSeverityRankMonotonic(t *testing.T) {
	assert.Greater(t, SeverityCritical.Rank(), SeverityHigh.Rank())
	assert.Greater(t, SeverityHigh.Rank(), SeverityMedium.Rank())
	assert.Greater(t, SeverityMedium.Rank(), SeverityLow.Rank())
	assert.Greater(t, SeverityLow.Rank(), SeverityInfo.Rank())
}

func ExampleFingerprint() {
	fmt.Println(Fingerprint("PII-001", "src/a.ts", 1))
}

package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/gitgovernance/audit/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeSARIF(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var report map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	return report
}

func TestSARIFFormatterVersionAndDriver(t *testing.T) {
	var buf bytes.Buffer
	f := NewSARIFFormatter(&buf)
	require.NoError(t, f.Format(sampleResult()))

	report := decodeSARIF(t, &buf)
	assert.Equal(t, "2.1.0", report["version"])

	runs := report["runs"].([]interface{})
	require.Len(t, runs, 1)
	run := runs[0].(map[string]interface{})
	tool := run["tool"].(map[string]interface{})
	driver := tool["driver"].(map[string]interface{})
	assert.Equal(t, driverName, driver["name"])
}

func TestSARIFFormatterDedupesRules(t *testing.T) {
	var buf bytes.Buffer
	f := NewSARIFFormatter(&buf)
	result := sampleResult()
	result.Findings = append(result.Findings, result.Findings[0])
	require.NoError(t, f.Format(result))

	report := decodeSARIF(t, &buf)
	run := report["runs"].([]interface{})[0].(map[string]interface{})
	driver := run["tool"].(map[string]interface{})["driver"].(map[string]interface{})
	rules := driver["rules"].([]interface{})
	assert.Len(t, rules, 2)

	results := run["results"].([]interface{})
	assert.Len(t, results, 3)
}

func TestSARIFFormatterResultFields(t *testing.T) {
	var buf bytes.Buffer
	f := NewSARIFFormatter(&buf)
	require.NoError(t, f.Format(sampleResult()))

	report := decodeSARIF(t, &buf)
	run := report["runs"].([]interface{})[0].(map[string]interface{})
	results := run["results"].([]interface{})
	require.Len(t, results, 2)

	result := results[1].(map[string]interface{})
	assert.Equal(t, "SEC-002", result["ruleId"])
	assert.Equal(t, "error", result["level"])

	locations := result["locations"].([]interface{})
	require.Len(t, locations, 1)
	physLoc := locations[0].(map[string]interface{})["physicalLocation"].(map[string]interface{})
	artifact := physLoc["artifactLocation"].(map[string]interface{})
	assert.Equal(t, "b.ts", artifact["uri"])
	region := physLoc["region"].(map[string]interface{})
	assert.Equal(t, float64(4), region["startLine"])

	fingerprints := result["fingerprints"].(map[string]interface{})
	assert.NotEmpty(t, fingerprints[fingerprintKey])
}

func TestSARIFFormatterSeverityToLevel(t *testing.T) {
	tests := []struct {
		severity string
		expected string
	}{
		{"critical", "error"},
		{"high", "error"},
		{"medium", "warning"},
		{"low", "note"},
		{"info", "note"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, severityToLevel(model.Severity(tt.severity)))
	}
}

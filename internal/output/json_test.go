package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFormatterRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(&buf)
	err := f.Format(sampleResult(), ScanInfo{Target: ".", Version: "1.2.3"})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	tool := decoded["tool"].(map[string]interface{})
	assert.Equal(t, driverName, tool["name"])
	assert.Equal(t, "1.2.3", tool["version"])

	result := decoded["result"].(map[string]interface{})
	findings := result["findings"].([]interface{})
	assert.Len(t, findings, 2)
}

func TestJSONFormatterIsIndented(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(&buf)
	require.NoError(t, f.Format(sampleResult(), ScanInfo{Target: "."}))
	assert.Contains(t, buf.String(), "\n  ")
}

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunPrintsSummaryLine(t *testing.T) {
	var out, errOut bytes.Buffer

	code := run([]string{"-n", "500", "-s", "42"}, &out, &errOut)

	assert.Equal(t, 0, code)
	assert.Empty(t, errOut.String())
	assert.Contains(t, out.String(), "count=500")
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	var out, errOut bytes.Buffer

	code := run([]string{"-l", "2"}, &out, &errOut) // below the log2size floor

	assert.Equal(t, 1, code)
	assert.Contains(t, errOut.String(), "invalid configuration")
}

func TestRunWithDumpAndMetricsFlags(t *testing.T) {
	var out, errOut bytes.Buffer

	code := run([]string{"-n", "50", "--dump", "--metrics"}, &out, &errOut)

	assert.Equal(t, 0, code)
	assert.Empty(t, errOut.String())
	assert.True(t, strings.Contains(out.String(), "hmap_entries"))
}

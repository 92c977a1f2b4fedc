package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const snapshot = `{
	"rooms": [{"id": "r1", "name": "A-101", "capacity": 20, "building": "A"}],
	"exams": [{"id": "e1", "department": "CSE", "subject": "Maths", "eligibleStudents": 25, "shift": "afternoon", "date": "2025-02-17"}],
	"teachers": [{"id": "1", "name": "Dr. Rajesh Kumar", "experience": "experienced", "weeklyAvailability": {"monday": "morning"}}],
	"teacherLeaves": []
}`

func writeSnapshot(t *testing.T) string {
	file := filepath.Join(t.TempDir(), "input.json")
	require.NoError(t, os.WriteFile(file, []byte(snapshot), 0666))
	return file
}

func TestRunAllocate(t *testing.T) {
	color.NoColor = true
	file := writeSnapshot(t)

	t.Run("Json", func(t *testing.T) {
		var output bytes.Buffer

		err := runAllocate(allocateOptions{file: file, strategy: "retrospective", format: "json"}, &output)

		require.NoError(t, err)
		var decoded map[string]any
		require.NoError(t, json.Unmarshal(output.Bytes(), &decoded))
		assert.Contains(t, decoded, "roomAllocations")
		assert.Contains(t, output.String(), `"teachers": "Unassigned"`)
	})

	t.Run("Table", func(t *testing.T) {
		var output bytes.Buffer

		err := runAllocate(allocateOptions{file: file, strategy: "capped", format: "table"}, &output)

		require.NoError(t, err)
		assert.Contains(t, output.String(), "Unassigned")
		assert.Contains(t, output.String(), "15 CSE students without a seat")
		assert.Contains(t, output.String(), "Below average: Dr. Rajesh Kumar (0)")
	})

	t.Run("Output file", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "out.json")

		err := runAllocate(allocateOptions{file: file, out: out, strategy: "retrospective", format: "json"}, &bytes.Buffer{})

		require.NoError(t, err)
		content, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Contains(t, string(content), "teacherDutyLoad")
	})

	t.Run("Invalid arguments", func(t *testing.T) {
		assert.Error(t, runAllocate(allocateOptions{file: file, strategy: "retrospective", format: "xml"}, &bytes.Buffer{}))
		assert.Error(t, runAllocate(allocateOptions{file: file, strategy: "optimal", format: "json"}, &bytes.Buffer{}))
		assert.Error(t, runAllocate(allocateOptions{file: file + ".missing", strategy: "retrospective", format: "json"}, &bytes.Buffer{}))
	})
}

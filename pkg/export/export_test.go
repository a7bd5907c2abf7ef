package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/lessonalloc/core/model"
	"github.com/kilianp07/lessonalloc/core/report"
)

func sample() *report.Reconciliation {
	return &report.Reconciliation{
		Schedule: []report.Lesson{
			{Allocation: model.Allocation{Slot: 1, Student: 1, Teacher: 2, Subject: 3}, SlotLabel: "2025-04-01 (P1)", StudentName: "Alice", TeacherName: "Sato", SubjectName: "Math"},
			{Allocation: model.Allocation{Slot: 2, Student: 1, Teacher: 2, Subject: 3}, SlotLabel: "2025-04-01 (P2)", StudentName: "Alice", TeacherName: "Sato", SubjectName: "Math", New: true},
		},
		Requests: []report.RequestOutcome{
			{Student: 1, Subject: 3, StudentName: "Alice", SubjectName: "Math", Requested: 3, Existing: 1, New: 1, Placed: 2, Deficit: 1, Reason: report.ReasonCapacity, Ratio: 2.0 / 3},
		},
		Requested: 3,
		Placed:    2,
		Ratio:     2.0 / 3,
	}
}

func TestWriteAllocatedCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAllocatedCSV(&buf, sample().Schedule))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(AllocatedHeader, ","), lines[0])
	assert.Equal(t, "2,1,2,3,2025-04-01 (P2),Alice,Sato,Math,true", lines[2])
}

func TestWriteUnallocatedAndFulfillmentCSV(t *testing.T) {
	rec := sample()
	var un, ful bytes.Buffer
	require.NoError(t, WriteUnallocatedCSV(&un, rec.Unallocated()))
	require.NoError(t, WriteFulfillmentCSV(&ful, rec.Requests))
	assert.Contains(t, un.String(), "1,3,Alice,Math,3,2,1,capacity-constrained")
	assert.Contains(t, ful.String(), "1,3,Alice,Math,3,2,66.7")
}

func TestWriteCSV_HeaderOnlyWhenEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteUnallocatedCSV(&buf, nil))
	assert.Equal(t, strings.Join(UnallocatedHeader, ",")+"\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, NewSummary("r1", "allocated", "OPTIMAL", sample())))
	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "r1", got["run_id"])
	assert.Equal(t, 66.7, got["fulfillment_percent"])
	assert.EqualValues(t, 1, got["new_lessons"])
	assert.Len(t, got["unallocated"], 1)
}

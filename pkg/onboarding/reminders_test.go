package onboarding

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRemindersDeadlineClose(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	due := now.Add(2 * 24 * time.Hour)

	r := &Record{
		ID:                      "rec-1",
		ClientID:                "client-1",
		BusinessInfo:            BusinessInfo{CompanyName: "Shear Genius"},
		Status:                  StatusInProgress,
		EstimatedCompletionDate: &due,
		UpdatedAt:               now,
	}

	out := BuildReminders([]*Record{r}, now)
	require.Len(t, out, 1)
	rem := out[0]
	assert.Equal(t, "onboarding", rem.Type)
	assert.Equal(t, "preOnboarding", rem.Stage)
	assert.Equal(t, "high", rem.Priority)
	assert.Equal(t, "client-1", rem.ClientID)
	assert.Equal(t, "rec-1", rem.RecordID)
	assert.True(t, rem.IsSmartGenerated)
	assert.Contains(t, rem.Description, "Shear Genius")
	require.NotNil(t, rem.DueDate)
	assert.Equal(t, due, *rem.DueDate)
}

func TestBuildRemindersStaleRecord(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	due := now.Add(20 * 24 * time.Hour)

	r := &Record{
		ID:                      "rec-2",
		ClientID:                "client-2",
		Status:                  StatusInProgress,
		EstimatedCompletionDate: &due,
		UpdatedAt:               now.Add(-4 * 24 * time.Hour),
	}

	out := BuildReminders([]*Record{r}, now)
	require.Len(t, out, 1)
	// Without a company name the description falls back to the client ID.
	assert.Contains(t, out[0].Description, "client-2")
	assert.Equal(t, "businessInfo", out[0].Stage)
}

func TestBuildRemindersSkipsQuietRecords(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	due := now.Add(20 * 24 * time.Hour)

	r := &Record{
		Status:                  StatusInProgress,
		EstimatedCompletionDate: &due,
		UpdatedAt:               now.Add(-24 * time.Hour),
	}

	assert.Empty(t, BuildReminders([]*Record{r}, now))
}

func TestBuildRemindersSkipsTerminalStatuses(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	due := now.Add(-24 * time.Hour)

	records := []*Record{
		{Status: StatusCompleted, EstimatedCompletionDate: &due},
		{Status: StatusCancelled, EstimatedCompletionDate: &due},
	}

	assert.Empty(t, BuildReminders(records, now))
}

func TestBuildRemindersSkipsFullyAnchoredRecords(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	due := now.Add(-24 * time.Hour)

	// Every anchor set but progress short of 100: nothing actionable.
	r := fullRecord()
	r.Status = StatusOverdue
	r.EstimatedCompletionDate = &due
	r.UpdatedAt = now

	assert.Empty(t, BuildReminders([]*Record{r}, now))
}

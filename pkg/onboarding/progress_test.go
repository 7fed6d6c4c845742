package onboarding

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timePtr(t time.Time) *time.Time { return &t }

// fullRecord satisfies every scoring sub-condition across all six stages.
func fullRecord() *Record {
	now := time.Now()
	return &Record{
		ID:       "rec-1",
		ClientID: "client-1",
		BusinessInfo: BusinessInfo{
			CompanyName:       "Shear Genius",
			PhoneNumber:       "555-0101",
			EmailAddress:      "owner@sheargenius.example",
			PhysicalAddress:   "12 High St",
			NumberOfEmployees: 6,
		},
		PreOnboarding: PreOnboarding{
			InitialContactChecklist: []string{"intro call"},
			MeetingPrepChecklist:    []string{"agenda"},
			InitialContactDate:      timePtr(now),
			FirstMeetingDate:        timePtr(now),
		},
		NeedsAssessment: NeedsAssessment{
			CurrentArrangements: "in-house cleaning",
			ServicesNeeded:      []string{"deep clean"},
			PreferredDays:       []string{"monday"},
			MonthlyBudget:       1200,
		},
		ServiceProposal: ServiceProposal{
			RecommendedPackage: "premium",
			ProposedFrequency:  "weekly",
			ServiceDuration:    "2h",
			ProposedPricing:    950,
		},
		FollowUp: FollowUp{
			ContractStatus:         "signed",
			ImmediateActions:       []string{"schedule start"},
			ProposalSubmissionDate: timePtr(now),
		},
		Feedback: Feedback{
			SatisfactionRating:  5,
			AssignedStaffMember: "staff-3",
			CompletionDate:      timePtr(now),
		},
	}
}

func TestComputeProgressEmpty(t *testing.T) {
	assert.Equal(t, 0, ComputeProgress(&Record{}))
}

func TestComputeProgressFull(t *testing.T) {
	assert.Equal(t, 100, ComputeProgress(fullRecord()))
}

func TestComputeProgressIdempotent(t *testing.T) {
	r := fullRecord()
	r.FollowUp.ContractStatus = ""
	first := ComputeProgress(r)
	second := ComputeProgress(r)
	assert.Equal(t, first, second)
}

func TestComputeProgressCompanyNameGatesBusinessInfo(t *testing.T) {
	// All secondary businessInfo fields set but no company name: the
	// entire stage contributes nothing.
	r := &Record{
		BusinessInfo: BusinessInfo{
			PhoneNumber:       "555-0101",
			EmailAddress:      "a@b.example",
			PhysicalAddress:   "12 High St",
			NumberOfEmployees: 6,
		},
	}
	assert.Equal(t, 0, ComputeProgress(r))

	r.BusinessInfo.CompanyName = "Shear Genius"
	assert.Equal(t, 20, ComputeProgress(r))
}

func TestComputeProgressCompanyNameOnly(t *testing.T) {
	r := &Record{BusinessInfo: BusinessInfo{CompanyName: "Shear Genius"}}
	assert.Equal(t, 10, ComputeProgress(r))
}

func TestComputeProgressPartialStages(t *testing.T) {
	// Fully populated businessInfo (20) plus a non-empty initial contact
	// checklist (8) scores 28.
	r := &Record{
		BusinessInfo: BusinessInfo{
			CompanyName:       "Shear Genius",
			PhoneNumber:       "555-0101",
			EmailAddress:      "a@b.example",
			PhysicalAddress:   "12 High St",
			NumberOfEmployees: 6,
		},
		PreOnboarding: PreOnboarding{
			InitialContactChecklist: []string{"intro call"},
		},
	}
	assert.Equal(t, 28, ComputeProgress(r))
}

func TestComputeProgressStageWeights(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Record)
		want   int
	}{
		{"preOnboarding full", func(r *Record) { r.PreOnboarding = fullRecord().PreOnboarding }, 15},
		{"needsAssessment full", func(r *Record) { r.NeedsAssessment = fullRecord().NeedsAssessment }, 20},
		{"serviceProposal full", func(r *Record) { r.ServiceProposal = fullRecord().ServiceProposal }, 20},
		{"followUp full", func(r *Record) { r.FollowUp = fullRecord().FollowUp }, 15},
		{"feedback full", func(r *Record) { r.Feedback = fullRecord().Feedback }, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Record{}
			tt.mutate(r)
			assert.Equal(t, tt.want, ComputeProgress(r))
		})
	}
}

func TestStageProgressBinary(t *testing.T) {
	r := &Record{
		BusinessInfo: BusinessInfo{CompanyName: "Shear Genius"},
		// Partial preOnboarding points (meeting prep set) but the anchor
		// (initial contact checklist) is empty: stage gates at 0.
		PreOnboarding: PreOnboarding{MeetingPrepChecklist: []string{"agenda"}},
	}

	sp := StageProgress(r)
	assert.Equal(t, 100, sp[StageBusinessInfo])
	assert.Equal(t, 0, sp[StagePreOnboarding])
	assert.Equal(t, 0, sp[StageNeedsAssessment])
	assert.Len(t, sp, 6)

	// The fine score still counts the non-anchor points.
	assert.Equal(t, 14, ComputeProgress(r))
}

func TestNextActionWalkOrder(t *testing.T) {
	r := &Record{}
	next := NextAction(r)
	assert.Equal(t, "businessInfo", next.Stage)
	assert.Equal(t, "high", next.Priority)

	r.BusinessInfo.CompanyName = "Shear Genius"
	next = NextAction(r)
	assert.Equal(t, "preOnboarding", next.Stage)
	assert.Equal(t, "high", next.Priority)

	r.PreOnboarding.InitialContactChecklist = []string{"call"}
	next = NextAction(r)
	assert.Equal(t, "needsAssessment", next.Stage)
	assert.Equal(t, "medium", next.Priority)

	r.NeedsAssessment.CurrentArrangements = "none"
	next = NextAction(r)
	assert.Equal(t, "serviceProposal", next.Stage)
	assert.Equal(t, "medium", next.Priority)

	r.ServiceProposal.RecommendedPackage = "premium"
	next = NextAction(r)
	assert.Equal(t, "followUp", next.Stage)
	assert.Equal(t, "high", next.Priority)

	r.FollowUp.ContractStatus = "sent"
	next = NextAction(r)
	assert.Equal(t, "feedback", next.Stage)
	assert.Equal(t, "low", next.Priority)

	r.Feedback.SatisfactionRating = 4
	next = NextAction(r)
	assert.Equal(t, NextActionResult{Stage: "completed", Action: "Onboarding complete", Priority: "none"}, next)
}

func TestDaysRemaining(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	r := &Record{}
	assert.Nil(t, DaysRemaining(r, now), "no deadline")

	due := now.Add(5 * 24 * time.Hour)
	r.EstimatedCompletionDate = &due
	days := DaysRemaining(r, now)
	require.NotNil(t, days)
	assert.Equal(t, 5, *days)

	// Partial days round up.
	due = now.Add(36 * time.Hour)
	r.EstimatedCompletionDate = &due
	days = DaysRemaining(r, now)
	require.NotNil(t, days)
	assert.Equal(t, 2, *days)

	// Past deadlines go negative.
	due = now.Add(-48 * time.Hour)
	r.EstimatedCompletionDate = &due
	days = DaysRemaining(r, now)
	require.NotNil(t, days)
	assert.Equal(t, -2, *days)

	// Completed records have no countdown.
	r.Status = StatusCompleted
	assert.Nil(t, DaysRemaining(r, now))
}

func TestUrgencyBoundaries(t *testing.T) {
	intPtr := func(v int) *int { return &v }

	tests := []struct {
		days *int
		want Urgency
	}{
		{nil, UrgencyNone},
		{intPtr(-1), UrgencyOverdue},
		{intPtr(0), UrgencyUrgent},
		{intPtr(3), UrgencyUrgent},
		{intPtr(4), UrgencyHigh},
		{intPtr(7), UrgencyHigh},
		{intPtr(8), UrgencyMedium},
		{intPtr(14), UrgencyMedium},
		{intPtr(15), UrgencyLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, UrgencyFor(tt.days), "days=%v", tt.days)
	}
}

func TestNewView(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	due := now.Add(2 * 24 * time.Hour)
	r := fullRecord()
	r.FollowUp.ContractStatus = ""
	r.EstimatedCompletionDate = &due
	r.Status = StatusInProgress

	v := NewView(r, now)
	require.NotNil(t, v.DaysRemaining)
	assert.Equal(t, 2, *v.DaysRemaining)
	assert.Equal(t, UrgencyUrgent, v.UrgencyLevel)
	assert.Equal(t, "followUp", v.NextAction.Stage)
	assert.Equal(t, 0, v.StageProgress[StageFollowUp])
}

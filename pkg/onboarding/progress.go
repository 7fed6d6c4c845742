package onboarding

import (
	"math"
	"time"
)

// ComputeProgress scores the record's six stages. Each field contributes
// its fixed weight independently; the weights sum to exactly 100 when every
// field is filled, so the final clamp is defensive rather than normalizing.
//
// The businessInfo stage is special: without a company name the whole stage
// contributes nothing, whatever else is filled in.
func ComputeProgress(r *Record) int {
	total := 0

	if r.BusinessInfo.CompanyName != "" {
		total += 10
		if r.BusinessInfo.PhoneNumber != "" {
			total += 3
		}
		if r.BusinessInfo.EmailAddress != "" {
			total += 3
		}
		if r.BusinessInfo.PhysicalAddress != "" {
			total += 2
		}
		if r.BusinessInfo.NumberOfEmployees > 0 {
			total += 2
		}
	}

	if len(r.PreOnboarding.InitialContactChecklist) > 0 {
		total += 8
	}
	if len(r.PreOnboarding.MeetingPrepChecklist) > 0 {
		total += 4
	}
	if r.PreOnboarding.InitialContactDate != nil {
		total += 2
	}
	if r.PreOnboarding.FirstMeetingDate != nil {
		total += 1
	}

	if r.NeedsAssessment.CurrentArrangements != "" {
		total += 5
	}
	if len(r.NeedsAssessment.ServicesNeeded) > 0 {
		total += 8
	}
	if len(r.NeedsAssessment.PreferredDays) > 0 {
		total += 3
	}
	if r.NeedsAssessment.MonthlyBudget > 0 {
		total += 4
	}

	if r.ServiceProposal.RecommendedPackage != "" {
		total += 8
	}
	if r.ServiceProposal.ProposedFrequency != "" {
		total += 4
	}
	if r.ServiceProposal.ServiceDuration != "" {
		total += 4
	}
	if r.ServiceProposal.ProposedPricing > 0 {
		total += 4
	}

	if r.FollowUp.ContractStatus != "" {
		total += 8
	}
	if len(r.FollowUp.ImmediateActions) > 0 {
		total += 4
	}
	if r.FollowUp.ProposalSubmissionDate != nil {
		total += 3
	}

	if r.Feedback.SatisfactionRating > 0 {
		total += 5
	}
	if r.Feedback.AssignedStaffMember != "" {
		total += 3
	}
	if r.Feedback.CompletionDate != nil {
		total += 2
	}

	if total > 100 {
		total = 100
	}
	return total
}

// stageComplete keys each stage on a single anchor field. Deliberately
// coarser than ComputeProgress: a stage can gate as incomplete while still
// contributing partial points to the score.
func stageComplete(r *Record, stage Stage) bool {
	switch stage {
	case StageBusinessInfo:
		return r.BusinessInfo.CompanyName != ""
	case StagePreOnboarding:
		return len(r.PreOnboarding.InitialContactChecklist) > 0
	case StageNeedsAssessment:
		return r.NeedsAssessment.CurrentArrangements != ""
	case StageServiceProposal:
		return r.ServiceProposal.RecommendedPackage != ""
	case StageFollowUp:
		return r.FollowUp.ContractStatus != ""
	case StageFeedback:
		return r.Feedback.SatisfactionRating > 0
	default:
		return false
	}
}

// StageProgress reports per-stage binary completion, 0 or 100.
func StageProgress(r *Record) map[Stage]int {
	out := make(map[Stage]int, len(StageOrder))
	for _, stage := range StageOrder {
		if stageComplete(r, stage) {
			out[stage] = 100
		} else {
			out[stage] = 0
		}
	}
	return out
}

var nextActions = map[Stage]NextActionResult{
	StageBusinessInfo:    {Stage: string(StageBusinessInfo), Action: "Complete business information", Priority: "high"},
	StagePreOnboarding:   {Stage: string(StagePreOnboarding), Action: "Complete initial contact checklist", Priority: "high"},
	StageNeedsAssessment: {Stage: string(StageNeedsAssessment), Action: "Document current arrangements and service needs", Priority: "medium"},
	StageServiceProposal: {Stage: string(StageServiceProposal), Action: "Prepare recommended service package", Priority: "medium"},
	StageFollowUp:        {Stage: string(StageFollowUp), Action: "Update contract status", Priority: "high"},
	StageFeedback:        {Stage: string(StageFeedback), Action: "Collect client satisfaction rating", Priority: "low"},
}

// NextAction walks the stages in fixed order and returns the first whose
// anchor is unset. When every anchor is set it returns the completed
// sentinel.
func NextAction(r *Record) NextActionResult {
	for _, stage := range StageOrder {
		if !stageComplete(r, stage) {
			return nextActions[stage]
		}
	}
	return NextActionResult{Stage: "completed", Action: "Onboarding complete", Priority: "none"}
}

// DaysRemaining returns the whole days until the expected completion date,
// rounding up. Nil when there is no expected date or the record is already
// completed. Negative when the date has passed.
func DaysRemaining(r *Record, now time.Time) *int {
	if r.EstimatedCompletionDate == nil || r.Status == StatusCompleted {
		return nil
	}
	days := int(math.Ceil(r.EstimatedCompletionDate.Sub(now).Hours() / 24))
	return &days
}

// UrgencyFor maps days remaining to an urgency bucket.
func UrgencyFor(days *int) Urgency {
	switch {
	case days == nil:
		return UrgencyNone
	case *days < 0:
		return UrgencyOverdue
	case *days <= 3:
		return UrgencyUrgent
	case *days <= 7:
		return UrgencyHigh
	case *days <= 14:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

package onboarding

import "time"

// Status is the lifecycle state of an onboarding record.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusOverdue    Status = "overdue"
	StatusCancelled  Status = "cancelled"
)

// Urgency classifies how close a record is to its deadline.
type Urgency string

const (
	UrgencyNone    Urgency = "none"
	UrgencyOverdue Urgency = "overdue"
	UrgencyUrgent  Urgency = "urgent"
	UrgencyHigh    Urgency = "high"
	UrgencyMedium  Urgency = "medium"
	UrgencyLow     Urgency = "low"
)

// Stage names the six phases of the onboarding journey.
type Stage string

const (
	StageBusinessInfo    Stage = "businessInfo"
	StagePreOnboarding   Stage = "preOnboarding"
	StageNeedsAssessment Stage = "needsAssessment"
	StageServiceProposal Stage = "serviceProposal"
	StageFollowUp        Stage = "followUp"
	StageFeedback        Stage = "feedback"
)

// StageOrder is the fixed walk order for next-action derivation.
var StageOrder = []Stage{
	StageBusinessInfo,
	StagePreOnboarding,
	StageNeedsAssessment,
	StageServiceProposal,
	StageFollowUp,
	StageFeedback,
}

// BusinessInfo is the first stage: basic facts about the client's business.
type BusinessInfo struct {
	CompanyName       string `json:"companyName,omitempty"`
	PhoneNumber       string `json:"phoneNumber,omitempty"`
	EmailAddress      string `json:"emailAddress,omitempty"`
	PhysicalAddress   string `json:"physicalAddress,omitempty"`
	NumberOfEmployees int    `json:"numberOfEmployees,omitempty"`
}

// PreOnboarding covers initial contact and meeting preparation.
type PreOnboarding struct {
	InitialContactChecklist []string   `json:"initialContactChecklist,omitempty"`
	MeetingPrepChecklist    []string   `json:"meetingPrepChecklist,omitempty"`
	InitialContactDate      *time.Time `json:"initialContactDate,omitempty"`
	FirstMeetingDate        *time.Time `json:"firstMeetingDate,omitempty"`
}

// NeedsAssessment captures what the client needs and can spend.
type NeedsAssessment struct {
	CurrentArrangements string   `json:"currentArrangements,omitempty"`
	ServicesNeeded      []string `json:"servicesNeeded,omitempty"`
	PreferredDays       []string `json:"preferredDays,omitempty"`
	MonthlyBudget       float64  `json:"monthlyBudget,omitempty"`
}

// ServiceProposal is the package offered to the client.
type ServiceProposal struct {
	RecommendedPackage string  `json:"recommendedPackage,omitempty"`
	ProposedFrequency  string  `json:"proposedFrequency,omitempty"`
	ServiceDuration    string  `json:"serviceDuration,omitempty"`
	ProposedPricing    float64 `json:"proposedPricing,omitempty"`
}

// FollowUp tracks the proposal and contract back-and-forth.
type FollowUp struct {
	ContractStatus         string     `json:"contractStatus,omitempty"`
	ImmediateActions       []string   `json:"immediateActions,omitempty"`
	ProposalSubmissionDate *time.Time `json:"proposalSubmissionDate,omitempty"`
}

// Feedback closes out the journey.
type Feedback struct {
	SatisfactionRating  int        `json:"satisfactionRating,omitempty"`
	AssignedStaffMember string     `json:"assignedStaffMember,omitempty"`
	CompletionDate      *time.Time `json:"completionDate,omitempty"`
}

// Note is a free-form annotation on a record.
type Note struct {
	ID        string    `json:"id"`
	Author    string    `json:"author,omitempty"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// Record is one client's onboarding journey. JSON uses camelCase because
// the dashboard consumes these records directly.
type Record struct {
	ID       string `json:"id"`
	ClientID string `json:"clientId"`

	BusinessInfo    BusinessInfo    `json:"businessInfo"`
	PreOnboarding   PreOnboarding   `json:"preOnboarding"`
	NeedsAssessment NeedsAssessment `json:"needsAssessment"`
	ServiceProposal ServiceProposal `json:"serviceProposal"`
	FollowUp        FollowUp        `json:"followUp"`
	Feedback        Feedback        `json:"feedback"`

	// Progress and Status are derived; Finalize overwrites both before
	// every persist. They are never taken from a write payload.
	Progress int    `json:"progress"`
	Status   Status `json:"status"`

	EstimatedCompletionDate *time.Time `json:"estimatedCompletionDate,omitempty"`
	ActualCompletionDate    *time.Time `json:"actualCompletionDate,omitempty"`
	CompletedAt             *time.Time `json:"completedAt,omitempty"`

	AssignedTo    string   `json:"assignedTo,omitempty"`
	CreatedBy     string   `json:"createdBy,omitempty"`
	LastUpdatedBy string   `json:"lastUpdatedBy,omitempty"`
	Notes         []Note   `json:"notes,omitempty"`
	Tags          []string `json:"tags,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NextActionResult names the first incomplete stage and what to do about it.
type NextActionResult struct {
	Stage    string `json:"stage"`
	Action   string `json:"action"`
	Priority string `json:"priority"`
}

// View is a record plus its read-time derivations, the shape every GET and
// PUT response returns.
type View struct {
	*Record
	DaysRemaining *int             `json:"daysRemaining"`
	UrgencyLevel  Urgency          `json:"urgencyLevel"`
	StageProgress map[Stage]int    `json:"stageProgress"`
	NextAction    NextActionResult `json:"nextAction"`
}

// NewView assembles the response shape for a record at the given time.
func NewView(r *Record, now time.Time) View {
	days := DaysRemaining(r, now)
	return View{
		Record:        r,
		DaysRemaining: days,
		UrgencyLevel:  UrgencyFor(days),
		StageProgress: StageProgress(r),
		NextAction:    NextAction(r),
	}
}

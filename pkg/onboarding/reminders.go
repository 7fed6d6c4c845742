package onboarding

import (
	"fmt"
	"time"
)

// Reminder is the uniform shape the smart-reminder feed returns.
type Reminder struct {
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Type             string     `json:"type"`
	Priority         string     `json:"priority"`
	DueDate          *time.Time `json:"dueDate,omitempty"`
	Stage            string     `json:"stage"`
	ClientID         string     `json:"clientId"`
	RecordID         string     `json:"recordId"`
	IsSmartGenerated bool       `json:"isSmartGenerated"`
}

const staleAfter = 3 * 24 * time.Hour

// BuildReminders derives the smart-reminder feed: one reminder per
// non-completed record whose deadline is within 3 days or which has not
// been touched for more than 3 days.
func BuildReminders(records []*Record, now time.Time) []Reminder {
	var out []Reminder
	for _, r := range records {
		if r.Status == StatusCompleted || r.Status == StatusCancelled {
			continue
		}

		days := DaysRemaining(r, now)
		deadlineClose := days != nil && *days <= 3
		stale := now.Sub(r.UpdatedAt) > staleAfter
		if !deadlineClose && !stale {
			continue
		}

		next := NextAction(r)
		if next.Stage == "completed" {
			// Every anchor set but the record has not finished scoring
			// to 100 yet; nothing actionable to remind about.
			continue
		}

		name := r.BusinessInfo.CompanyName
		if name == "" {
			name = r.ClientID
		}

		out = append(out, Reminder{
			Title:            fmt.Sprintf("Onboarding: %s", next.Action),
			Description:      fmt.Sprintf("Client %s is waiting on the %s stage", name, next.Stage),
			Type:             "onboarding",
			Priority:         next.Priority,
			DueDate:          r.EstimatedCompletionDate,
			Stage:            next.Stage,
			ClientID:         r.ClientID,
			RecordID:         r.ID,
			IsSmartGenerated: true,
		})
	}
	return out
}

package onboarding

import "time"

// ApplyCreationDefaults fills in the fields a brand-new record gets exactly
// once: creation timestamps and, when unset, the expected completion date.
func ApplyCreationDefaults(r *Record, now time.Time, completionWindow time.Duration) {
	r.CreatedAt = now
	r.UpdatedAt = now
	if r.Status == "" {
		r.Status = StatusPending
	}
	if r.EstimatedCompletionDate == nil {
		due := now.Add(completionWindow)
		r.EstimatedCompletionDate = &due
	}
}

// Finalize recomputes progress and status before a persist. It runs on
// every create and update.
//
// Rules, in order:
//   - progress hits 100: status becomes completed, actualCompletionDate is
//     restamped, completedAt is stamped only the first time.
//   - progress strictly between 0 and 100: overdue when the expected
//     completion date has passed, in-progress otherwise.
//   - progress 0: status is left alone (a fresh record stays pending, a
//     cancelled record stays cancelled).
func Finalize(r *Record, now time.Time) {
	r.Progress = ComputeProgress(r)
	r.UpdatedAt = now

	switch {
	case r.Progress == 100:
		r.Status = StatusCompleted
		r.ActualCompletionDate = &now
		if r.CompletedAt == nil {
			r.CompletedAt = &now
		}
	case r.Progress > 0:
		if r.EstimatedCompletionDate != nil && r.EstimatedCompletionDate.Before(now) {
			r.Status = StatusOverdue
		} else {
			r.Status = StatusInProgress
		}
	}
}

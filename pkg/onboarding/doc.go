// Package onboarding tracks a client's onboarding journey and derives its
// progress, status and urgency.
//
// A record carries six stage blobs (business info, pre-onboarding, needs
// assessment, service proposal, follow-up, feedback). Three derivations run
// over them:
//
//   - ComputeProgress: a fine-grained weighted score, 0 to 100. Field
//     weights sum to exactly 100 when everything is filled in.
//   - StageProgress: a coarse per-stage gate keyed on one anchor field per
//     stage. A stage can read 0 here while contributing partial points to
//     the score; the two views are intentionally different granularities.
//   - NextAction: the first stage whose anchor is unset, with a fixed
//     label and priority.
//
// Progress and status are computed fields. Write payloads never set them;
// Finalize recomputes both before every persist.
//
// All derivations are pure functions of the record and an explicit now,
// so they are trivially safe under concurrent request handlers.
package onboarding

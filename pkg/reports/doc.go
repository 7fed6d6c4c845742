// Package reports runs the dashboard aggregations: onboarding pipeline
// counts, urgency distribution, task load and invoice revenue.
package reports

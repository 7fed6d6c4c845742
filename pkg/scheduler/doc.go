// Package scheduler runs the background jobs: the overdue onboarding
// sweep and the periodic gauge refresh feeding the metrics endpoint.
package scheduler

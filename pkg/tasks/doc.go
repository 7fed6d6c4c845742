// Package tasks tracks the work items staff carry out for clients:
// onboarding follow-ups, site visits, proposal prep and the like.
package tasks

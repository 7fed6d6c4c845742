// Package staff keeps the employee directory: profile details, titles and
// service specialties for the people assigned to clients and tasks.
package staff

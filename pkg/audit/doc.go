// Package audit records who did what: logins, grant changes, denied
// requests and data mutations. Entries land in the audit_logs table and
// back the admin activity view.
package audit

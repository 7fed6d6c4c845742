// Package clients manages the salon businesses the console serves: the
// master client roster that onboarding records, tasks, invoices and
// documents all hang off.
package clients

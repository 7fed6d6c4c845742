// Package invoices handles client billing: drafting, approval and payment
// tracking. Approval is a separate permission from editing so directors can
// gate who releases invoices.
package invoices

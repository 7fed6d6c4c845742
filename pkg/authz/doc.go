// Package authz implements the access-control model for the GlowDesk console.
//
// # Overview
//
// Every route and UI affordance in the console is gated by the same decision
// function: given a principal (role, user type, per-module grants) and a
// requested (module, action), the engine answers allow/deny. The engine also
// derives the set of modules a principal may see, which drives navigation.
//
// # Model
//
// The model has four closed enums:
//
//	Role        - admin, management, hr, sales, director, client
//	UserType    - staff, client
//	Module      - dashboard, clients, tasks, staff, leads, meetings,
//	              invoices, reports, settings, analytics, documents
//	Action      - create, read, update, delete, approve, assign, share
//
// and one ordered enum:
//
//	AccessLevel - none < view < edit < full
//
// A principal holds at most one Grant per module. A grant carries both an
// explicit action list and an access level. These are two independent gates:
// an action is allowed when it is listed OR when the grant level is full.
// The view and edit levels do not imply any actions; this asymmetry is a
// product decision carried over intact rather than "fixed" here.
//
// Two hardcoded rules dominate the grant table:
//
//   - admin role: every check passes, grants are never consulted.
//   - client user type: only (clients, read) passes, grants are never
//     consulted, and visible modules are exactly dashboard, clients and
//     documents.
//
// # Purity
//
// The engine is a pure function of its inputs. It performs no I/O, holds no
// mutable state and is safe for concurrent use. The valid enum sets live in
// an immutable Registry constructed once at startup and injected wherever
// validation is needed. Server middleware and the /authz/check endpoint the
// dashboard queries both call the same engine, so the decision logic is never
// restated.
package authz

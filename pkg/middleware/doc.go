// Package middleware provides the HTTP middleware that sits in front of
// every API route.
//
// AuthMiddleware resolves the Authorization header to an authz.Principal:
// session JWTs and "gd_"-prefixed API tokens are both accepted. The
// resolved principal lands in the request context; route-level gating is
// done by the authz package's middleware against the same principal.
//
// RateLimitMiddleware is a Redis-backed fixed-window limiter shared
// across instances. It fails open on Redis errors so a cache outage never
// takes the API down with it.
package middleware

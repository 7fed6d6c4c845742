// Package api wires the HTTP surface: one handler set per domain module,
// registered on a shared gorilla/mux router behind the authentication,
// authorization, audit and rate-limit middleware chain.
package api

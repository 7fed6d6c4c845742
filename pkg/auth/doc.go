// Package auth handles authentication: user accounts, password login,
// JWT session tokens and long-lived API tokens.
//
// Two credential kinds are accepted on the API:
//
//   - Session JWTs issued by password login, signed HS256, carrying the
//     user's role, user type and client back-reference.
//   - Opaque API tokens with the "gd_" prefix. Only a SHA-256 hash is
//     stored; the plaintext is shown once at creation.
//
// Authorization is not decided here. The middleware resolves a credential
// to an authz.Principal (role, user type, module grants) and hands it to
// the authorization engine. Principals are cached in a small TTL'd LRU so
// hot requests skip the grant query.
package auth

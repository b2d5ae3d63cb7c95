// Package authcore implements the authentication and session core of the
// task tracker: issuing short-lived signed access tokens, rotating
// long-lived refresh tokens, revoking access tokens ahead of their natural
// expiry, and keeping a read-through Redis cache consistent with domain
// mutations.
//
// The package exposes an [Engine] with four operations:
//
//   - Login: verify credentials against a [Directory] and issue an
//     access/refresh token pair.
//   - Refresh: rotate the refresh token (single use, compare-and-replace)
//     and mint a new access token.
//   - Logout: blacklist the access token for its remaining lifetime and
//     revoke the principal's refresh token.
//   - Authenticate: the per-request verification gate; signature, expiry
//     and revocation checks, returning an explicit [Identity].
//
// Credential verification and role membership live behind the [Directory]
// interface; refresh token persistence behind [refresh.Store]. Postgres
// implementations of both ship in the userdir and refresh packages, along
// with in-memory variants for tests and small deployments. Access token
// revocation and derived-view caching share one Redis-backed cache
// coordinator (package cache).
package authcore

// Package jwt is the access token codec: HMAC-SHA256 signed, claims-bearing,
// expiring compact tokens, issued and verified by the same key holder.
package jwt

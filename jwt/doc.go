// Package jwt inspects JWT-shaped credentials issued by the check-in service.
//
// The client never holds the signing key, so nothing here verifies a signature.
// Inspection only surfaces the subject and expiry for logging and identity
// enrichment; trust decisions stay with the remote service.
package jwt

// Package hash provides keyed digests for short-lived secrets.
//
// One-time codes are never kept in memory in clear text: the challenge store
// holds the HMAC of the code and verification recomputes it.
package hash

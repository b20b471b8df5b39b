// Package hash provides keyed digests for short-lived secrets.
//
// One-time codes are never stored in clear text: the store keeps an HMAC of
// the code bound to its owner, and verification recomputes the digest and
// compares in constant time.
package hash

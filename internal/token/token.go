package token

import "strconv"

// Token is an unforgeable bearer credential proving a prior successful
// safety decision. It is never persisted; it lives for one request chain.
type Token struct {
	ID        string  `json:"id"`
	IssuedAt  float64 `json:"issued_at"` // Unix seconds
	Subject   string  `json:"subject"`
	Signature string  `json:"signature"` // lowercase hex sha256
}

// payload returns the canonical signing input: id:issuedAt:subject:secret.
// IssuedAt uses shortest round-trip positional formatting so the encoding
// is stable across implementations.
func (t Token) payload(secret string) string {
	return t.ID + ":" + formatTimestamp(t.IssuedAt) + ":" + t.Subject + ":" + secret
}

func formatTimestamp(ts float64) string {
	return strconv.FormatFloat(ts, 'f', -1, 64)
}

// Grant distinguishes a verified external caller from a trusted internal
// caller. A magic bypass string is not a grant; the type system enforces
// the distinction.
type Grant interface {
	isGrant()
}

// Issued wraps a token presented by an external caller. It authorizes only
// if the token verifies.
type Issued struct {
	Token Token
}

// InternalBypass marks a call originating inside the trust boundary
// (scheduled jobs, migrations). Origin names the internal caller for audit.
type InternalBypass struct {
	Origin string
}

func (Issued) isGrant()         {}
func (InternalBypass) isGrant() {}

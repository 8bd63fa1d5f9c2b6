package token

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL bounds how long an issued token verifies. Tokens are meant to
// live for one request chain; five minutes is generous.
const DefaultTTL = 5 * time.Minute

// clockSkew tolerates small clock drift between issuer and verifier.
const clockSkew = 30 * time.Second

// Authority issues and verifies signed capability tokens. The secret is
// immutable after construction and safe for unsynchronized concurrent reads.
type Authority struct {
	secret string
	ttl    time.Duration
	now    func() time.Time
}

// Option configures an Authority.
type Option func(*Authority)

// WithTTL overrides the validity window. Zero or negative disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(a *Authority) { a.ttl = ttl }
}

// WithClock overrides the time source. For testing.
func WithClock(now func() time.Time) Option {
	return func(a *Authority) { a.now = now }
}

// New creates an Authority. An empty secret is replaced with a freshly
// generated random value, which invalidates tokens across restarts —
// acceptable for short-lived per-request credentials.
func New(secret string, opts ...Option) *Authority {
	if secret == "" {
		secret = randomSecret()
	}
	a := &Authority{
		secret: secret,
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Issue creates a signed token for the subject. Pure apart from entropy for
// the ID and reading the clock.
func (a *Authority) Issue(subject string) Token {
	t := Token{
		ID:       uuid.NewString(),
		IssuedAt: float64(a.now().UnixNano()) / 1e9,
		Subject:  subject,
	}
	t.Signature = a.sign(t)
	return t
}

// Verify recomputes the signature from the token's visible fields and the
// secret. A nil token, a signature mismatch, or a token outside the validity
// window all verify as false. Comparison is constant-time.
func (a *Authority) Verify(t *Token) bool {
	if t == nil {
		return false
	}
	expected := a.sign(*t)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(t.Signature)) != 1 {
		return false
	}
	if a.ttl <= 0 {
		return true
	}
	age := a.now().Sub(time.Unix(0, int64(t.IssuedAt*1e9)))
	return age >= -clockSkew && age <= a.ttl
}

// Authorize resolves a Grant: issued tokens must verify, internal bypass
// grants are trusted by construction.
func (a *Authority) Authorize(g Grant) bool {
	switch g := g.(type) {
	case Issued:
		return a.Verify(&g.Token)
	case InternalBypass:
		return true
	default:
		return false
	}
}

func (a *Authority) sign(t Token) string {
	sum := sha256.Sum256([]byte(t.payload(a.secret)))
	return hex.EncodeToString(sum[:])
}

func randomSecret() string {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand never fails on supported platforms; a zero secret
		// would silently weaken every signature, so fail loudly.
		panic("token: cannot read entropy: " + err.Error())
	}
	return hex.EncodeToString(b[:])
}

package attribution

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"go.uber.org/zap"
)

// MaxAge bounds how long a signed attribution bag verifies. Seven days
// covers realistic email read-and-click delays while limiting replay
// exposure for one-click checkout links.
const MaxAge = 7 * 24 * time.Hour

// insecureDefaultSecret is substituted when no signing secret is
// configured. Link generation must keep working even when attribution is
// misconfigured, so a missing secret degrades with a logged warning
// instead of failing.
const insecureDefaultSecret = "nmbr-dev-secret-do-not-use-in-production"

// SignedParams is a Params bag plus the signing instant (milliseconds
// since epoch) and a hex HMAC-SHA256 over the canonical serialization.
// It lives only as long as a URL or cookie; nothing here persists it.
type SignedParams struct {
	Params
	Timestamp int64  `json:"timestamp"`
	Signature string `json:"signature"`
}

// Signer produces and validates signed attribution bags. The secret is
// read-only after construction and safe for concurrent use.
type Signer struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewSigner creates a signer with the process-wide secret. An empty
// secret falls back to an obviously insecure default.
func NewSigner(secret string, logger *zap.Logger) *Signer {
	if secret == "" {
		logger.Warn("attribution signing secret not configured, using insecure default")
		secret = insecureDefaultSecret
	}
	return &Signer{
		secret: []byte(secret),
		maxAge: MaxAge,
		now:    time.Now,
		logger: logger,
	}
}

// Sign captures the current time and signs the tuple. It cannot fail:
// the payload is not confidential, only integrity- and freshness-
// sensitive, so signing (not encryption) is sufficient.
func (s *Signer) Sign(p Params) SignedParams {
	ts := s.now().UnixMilli()
	return SignedParams{
		Params:    p.Clone(),
		Timestamp: ts,
		Signature: s.signature(p, ts),
	}
}

// Verify returns the original tuple when the bag is fresh and untampered.
// Expired, forged and tampered bags are all rejected with the same
// (Params{}, false) result. Callers treat missing attribution as a
// normal outcome, and a uniform rejection avoids handing an attacker a
// tampering oracle.
func (s *Signer) Verify(sp SignedParams) (Params, bool) {
	if s.now().UnixMilli()-sp.Timestamp > s.maxAge.Milliseconds() {
		return Params{}, false
	}
	expected := s.signature(sp.Params, sp.Timestamp)
	if !hmac.Equal([]byte(expected), []byte(sp.Signature)) {
		return Params{}, false
	}
	return sp.Params.Clone(), true
}

func (s *Signer) signature(p Params, timestamp int64) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(canonical(p, timestamp)))
	return hex.EncodeToString(mac.Sum(nil))
}

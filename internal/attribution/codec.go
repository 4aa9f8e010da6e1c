package attribution

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// CookieName carries a signed attribution bag across sessions for
// view-through attribution.
const CookieName = "nmbr_attribution"

// cookieMaxAge matches MaxAge so an expired cookie is also an
// unverifiable one; the cookie's own expiry is defense in depth, not the
// mechanism we rely on.
const cookieMaxAge = int(MaxAge / time.Second)

// Codec serializes signed attribution bags into query strings and
// cookie values and parses them back. Every decode path swallows
// malformed input and reports absence instead of failing; a bad link or
// adversarial cookie must never break a page render or click-through.
type Codec struct {
	signer *Signer
}

// NewCodec wraps a signer with URL and cookie serialization.
func NewCodec(signer *Signer) *Codec {
	return &Codec{signer: signer}
}

// EncodeToURL signs the tuple and appends every present field of the
// signed bag as query parameters. Absent fields are skipped entirely;
// present-but-empty fields are emitted so the distinction survives the
// round trip. Base URLs with an existing query string are handled.
func (c *Codec) EncodeToURL(base string, p Params) string {
	sp := c.signer.Sign(p)
	q := url.Values{}
	for _, f := range sp.Params.fields() {
		if *f.val != nil {
			q.Set(f.name, **f.val)
		}
	}
	q.Set("timestamp", strconv.FormatInt(sp.Timestamp, 10))
	q.Set("signature", sp.Signature)

	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q.Encode()
}

// DecodeFromURL parses the query string into a signed bag candidate and
// verifies it. Missing fields become absent (not empty), and unknown or
// extra query parameters are ignored.
func (c *Codec) DecodeFromURL(rawURL string) (Params, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Params{}, false
	}
	q := u.Query()
	if !q.Has("timestamp") || !q.Has("signature") {
		return Params{}, false
	}
	ts, err := strconv.ParseInt(q.Get("timestamp"), 10, 64)
	if err != nil {
		return Params{}, false
	}

	var sp SignedParams
	for _, f := range sp.Params.fields() {
		if q.Has(f.name) {
			v := q.Get(f.name)
			*f.val = &v
		}
	}
	sp.Timestamp = ts
	sp.Signature = q.Get("signature")
	return c.signer.Verify(sp)
}

// EncodeToCookie signs the tuple and wraps the URL-encoded JSON of the
// signed bag in a Set-Cookie directive: seven-day max-age, Lax same-site
// policy, secure transport only.
func (c *Codec) EncodeToCookie(p Params) string {
	sp := c.signer.Sign(p)
	raw, err := json.Marshal(sp)
	if err != nil {
		// Marshalling a flat string struct cannot fail; keep the
		// contract that encoding never errors.
		return ""
	}
	return fmt.Sprintf("%s=%s; Path=/; Max-Age=%d; SameSite=Lax; Secure",
		CookieName, url.QueryEscape(string(raw)), cookieMaxAge)
}

// DecodeFromCookie extracts the attribution cookie from a raw Cookie
// header, URL-decodes and JSON-parses it, then verifies. Malformed
// headers, values and JSON all report absence.
func (c *Codec) DecodeFromCookie(header string) (Params, bool) {
	for _, part := range strings.Split(header, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || name != CookieName {
			continue
		}
		decoded, err := url.QueryUnescape(value)
		if err != nil {
			return Params{}, false
		}
		var sp SignedParams
		if err := json.Unmarshal([]byte(decoded), &sp); err != nil {
			return Params{}, false
		}
		return c.signer.Verify(sp)
	}
	return Params{}, false
}

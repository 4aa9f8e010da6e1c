package attribution

import (
	"net/url"
	"strconv"
	"strings"
)

// Params is the attribution tuple embedded in outbound commerce links:
// the story, update, campaign and recipient that produced a click, plus
// standard UTM reporting fields. Every field is optional and absence is
// distinct from an empty value: a recipient-less storefront link and a
// link whose recipient is blank sign differently. Values are never
// mutated after creation, only recreated.
type Params struct {
	NmbrID      *string `json:"nmbrId,omitempty"`
	UpdateID    *string `json:"updateId,omitempty"`
	CampaignID  *string `json:"campaignId,omitempty"`
	RecipientID *string `json:"recipientId,omitempty"`
	UTMSource   *string `json:"utm_source,omitempty"`
	UTMMedium   *string `json:"utm_medium,omitempty"`
	UTMCampaign *string `json:"utm_campaign,omitempty"`
	UTMTerm     *string `json:"utm_term,omitempty"`
	UTMContent  *string `json:"utm_content,omitempty"`
	Referrer    *string `json:"referrer,omitempty"`
}

// String returns a pointer to v, for building Params literals.
func String(v string) *string {
	return &v
}

type fieldRef struct {
	name string
	val  **string
}

// fields returns the wire name and storage slot for every field in the
// fixed canonical order. Both the canonical serialization and the URL
// codec iterate this list so they can never disagree on field order.
func (p *Params) fields() []fieldRef {
	return []fieldRef{
		{"nmbrId", &p.NmbrID},
		{"updateId", &p.UpdateID},
		{"campaignId", &p.CampaignID},
		{"recipientId", &p.RecipientID},
		{"utm_source", &p.UTMSource},
		{"utm_medium", &p.UTMMedium},
		{"utm_campaign", &p.UTMCampaign},
		{"utm_term", &p.UTMTerm},
		{"utm_content", &p.UTMContent},
		{"referrer", &p.Referrer},
	}
}

// Clone returns a deep copy so signed bags never alias caller memory.
func (p Params) Clone() Params {
	var out Params
	src := p.fields()
	dst := out.fields()
	for i := range src {
		if *src[i].val != nil {
			v := **src[i].val
			*dst[i].val = &v
		}
	}
	return out
}

// Equal reports whether two tuples match field for field, including
// which fields are absent versus present-but-empty.
func (p Params) Equal(other Params) bool {
	a := p.fields()
	b := other.fields()
	for i := range a {
		av, bv := *a[i].val, *b[i].val
		if (av == nil) != (bv == nil) {
			return false
		}
		if av != nil && *av != *bv {
			return false
		}
	}
	return true
}

// absentMarker flags a field that carried no value at signing time.
// Present values are percent-escaped before joining, so neither this
// byte nor the field separator can ever appear in a value slot and the
// marker cannot be forged by a crafted value.
const absentMarker = "\x00"

// canonical produces the deterministic serialization that is signed:
// every field in fixed order (absent fields marked, present values
// escaped), then the timestamp. Two logically identical bags always
// canonicalize to the same bytes regardless of how they were
// constructed, and no two distinct bags share a canonicalization.
func canonical(p Params, timestamp int64) string {
	var b strings.Builder
	for _, f := range p.fields() {
		b.WriteString(f.name)
		b.WriteByte('=')
		if *f.val == nil {
			b.WriteString(absentMarker)
		} else {
			b.WriteString(url.QueryEscape(**f.val))
		}
		b.WriteByte('\n')
	}
	b.WriteString("timestamp=")
	b.WriteString(strconv.FormatInt(timestamp, 10))
	return b.String()
}

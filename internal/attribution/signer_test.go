package attribution

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func fullParams() Params {
	return Params{
		NmbrID:      String("story-123"),
		UpdateID:    String("update-456"),
		CampaignID:  String("camp-789"),
		RecipientID: String("recip-001"),
		UTMSource:   String("nmbr_email"),
		UTMMedium:   String("update"),
		UTMCampaign: String("spring-drive"),
		UTMTerm:     String("sponsor"),
		UTMContent:  String("hero-button"),
		Referrer:    String("https://example.org/story"),
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	signer := NewSigner("test-secret", zap.NewNop())

	tests := []struct {
		name   string
		params Params
	}{
		{"all fields", fullParams()},
		{"partial", Params{NmbrID: String("n1"), CampaignID: String("c1")}},
		{"empty bag", Params{}},
		{"present but empty value", Params{RecipientID: String("")}},
		{"NUL value", Params{RecipientID: String("\x00")}},
		{"newline value", Params{Referrer: String("line1\nline2")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sp := signer.Sign(tt.params)
			got, ok := signer.Verify(sp)
			if !ok {
				t.Fatal("expected freshly signed bag to verify")
			}
			if !got.Equal(tt.params) {
				t.Errorf("round trip changed params: got %+v want %+v", got, tt.params)
			}
		})
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	signer := NewSigner("test-secret", zap.NewNop())

	tests := []struct {
		name   string
		mutate func(sp *SignedParams)
	}{
		{"changed value", func(sp *SignedParams) { sp.NmbrID = String("story-999") }},
		{"dropped field", func(sp *SignedParams) { sp.RecipientID = nil }},
		{"added field", func(sp *SignedParams) { sp.UTMTerm = String("injected") }},
		{"emptied value", func(sp *SignedParams) { sp.CampaignID = String("") }},
		{"swapped fields", func(sp *SignedParams) {
			sp.NmbrID, sp.UpdateID = sp.UpdateID, sp.NmbrID
		}},
		{"altered timestamp", func(sp *SignedParams) { sp.Timestamp++ }},
		{"altered signature", func(sp *SignedParams) {
			sig := []byte(sp.Signature)
			if sig[0] == 'a' {
				sig[0] = 'b'
			} else {
				sig[0] = 'a'
			}
			sp.Signature = string(sig)
		}},
		{"empty signature", func(sp *SignedParams) { sp.Signature = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := Params{
				NmbrID:      String("story-123"),
				UpdateID:    String("update-456"),
				CampaignID:  String("camp-789"),
				RecipientID: String("recip-001"),
			}
			sp := signer.Sign(base)
			tt.mutate(&sp)
			if got, ok := signer.Verify(sp); ok {
				t.Errorf("expected rejection, got params %+v", got)
			}
		})
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	a := NewSigner("secret-a", zap.NewNop())
	b := NewSigner("secret-b", zap.NewNop())

	sp := a.Sign(fullParams())
	if _, ok := b.Verify(sp); ok {
		t.Error("bag signed under a different secret must not verify")
	}
}

func TestVerifyExpiry(t *testing.T) {
	signedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		elapsed time.Duration
		want    bool
	}{
		{"fresh", time.Minute, true},
		{"six days", 6 * 24 * time.Hour, true},
		{"exactly seven days", MaxAge, true},
		{"just past seven days", MaxAge + time.Millisecond, false},
		{"eight days", 8 * 24 * time.Hour, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signer := NewSigner("test-secret", zap.NewNop())
			signer.now = func() time.Time { return signedAt }
			sp := signer.Sign(fullParams())

			signer.now = func() time.Time { return signedAt.Add(tt.elapsed) }
			if _, ok := signer.Verify(sp); ok != tt.want {
				t.Errorf("verify after %v = %v, want %v", tt.elapsed, ok, tt.want)
			}
		})
	}
}

func TestAbsentAndEmptySignDifferently(t *testing.T) {
	signer := NewSigner("test-secret", zap.NewNop())
	signer.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

	absent := signer.Sign(Params{NmbrID: String("n1")})
	empty := signer.Sign(Params{NmbrID: String("n1"), RecipientID: String("")})

	if absent.Signature == empty.Signature {
		t.Error("absent field and empty field must produce different signatures")
	}
}

func TestCanonicalMarkerCannotBeForgedByValue(t *testing.T) {
	signer := NewSigner("test-secret", zap.NewNop())
	signer.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

	// A value equal to the marker byte must not canonicalize like an
	// absent field.
	absent := signer.Sign(Params{NmbrID: String("n1")})
	nulValue := signer.Sign(Params{NmbrID: String("n1"), RecipientID: String("\x00")})
	if absent.Signature == nulValue.Signature {
		t.Error("a NUL value must sign differently from an absent field")
	}

	// A value containing the separator must not be able to smuggle in a
	// later field's line.
	smuggled := signer.Sign(Params{NmbrID: String("n1\nupdateId=u1")})
	honest := signer.Sign(Params{NmbrID: String("n1"), UpdateID: String("u1")})
	if smuggled.Signature == honest.Signature {
		t.Error("a value containing the separator must not forge another field")
	}
}

func TestDefaultSecretStillVerifies(t *testing.T) {
	signer := NewSigner("", zap.NewNop())
	sp := signer.Sign(fullParams())
	if _, ok := signer.Verify(sp); !ok {
		t.Error("signer with fallback secret must verify its own bags")
	}
}

func TestSignDoesNotAliasInput(t *testing.T) {
	signer := NewSigner("test-secret", zap.NewNop())
	p := Params{NmbrID: String("original")}
	sp := signer.Sign(p)

	*p.NmbrID = "mutated"
	if *sp.NmbrID != "original" {
		t.Error("signed bag must deep-copy the input params")
	}
}

package commerce

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/nmbrhq/commerce-engine/internal/attribution"
	"github.com/nmbrhq/commerce-engine/internal/storage"
)

type staticGeo struct{ country string }

func (g staticGeo) Country(ip string) string { return g.country }

func newTestTracking(t *testing.T) (*TrackingService, *attribution.Codec, *storage.InMemoryClickEventStore) {
	t.Helper()
	codec := attribution.NewCodec(attribution.NewSigner("test-secret", zap.NewNop()))
	events := storage.NewInMemoryClickEventStore()
	svc := NewTrackingService(codec, events, staticGeo{country: "CA"}, nil, zap.NewNop())
	return svc, codec, events
}

func TestRegisterClickAttributed(t *testing.T) {
	svc, codec, events := newTestTracking(t)

	link := codec.EncodeToURL("https://app.nmbr.co/org/store/mug", attribution.Params{
		NmbrID:     attribution.String("story-1"),
		CampaignID: attribution.String("camp-1"),
	})

	result := svc.RegisterClick(context.Background(), link, "https://app.nmbr.co/org/store/mug", "203.0.113.9", "Mozilla/5.0")
	if result.Params == nil {
		t.Fatal("expected verified params")
	}
	if *result.Params.NmbrID != "story-1" {
		t.Errorf("NmbrID = %q", *result.Params.NmbrID)
	}
	if !strings.Contains(result.Cookie, attribution.CookieName+"=") {
		t.Errorf("cookie = %q", result.Cookie)
	}

	// The cookie must round-trip through the codec.
	if _, ok := codec.DecodeFromCookie(result.Cookie); !ok {
		t.Error("returned cookie does not verify")
	}

	recorded := events.ListClickEvents()
	if len(recorded) != 1 {
		t.Fatalf("events = %d, want 1", len(recorded))
	}
	e := recorded[0]
	if !e.Attributed || e.NmbrID != "story-1" || e.CampaignID != "camp-1" {
		t.Errorf("event = %+v", e)
	}
	if e.Country != "CA" {
		t.Errorf("country = %q, want CA", e.Country)
	}
}

func TestRegisterClickUnattributed(t *testing.T) {
	svc, _, events := newTestTracking(t)

	result := svc.RegisterClick(context.Background(), "https://app.nmbr.co/page?nmbrId=forged", "https://app.nmbr.co/page", "", "")
	if result == nil {
		t.Fatal("result must never be nil")
	}
	if result.Params != nil {
		t.Errorf("unverified click must carry no params, got %+v", result.Params)
	}
	if result.Cookie != "" {
		t.Error("unverified click must not produce a cookie")
	}

	recorded := events.ListClickEvents()
	if len(recorded) != 1 {
		t.Fatalf("events = %d, want 1 (unattributed clicks are still recorded)", len(recorded))
	}
	if recorded[0].Attributed {
		t.Error("event wrongly marked attributed")
	}
	if recorded[0].NmbrID != "" {
		t.Error("unverified params must not leak into the event")
	}
}

func TestRegisterClickTruncatesUserAgent(t *testing.T) {
	svc, _, events := newTestTracking(t)

	svc.RegisterClick(context.Background(), "https://x.test/p", "https://x.test/p", "", strings.Repeat("a", 2000))

	recorded := events.ListClickEvents()
	if len(recorded) != 1 {
		t.Fatalf("events = %d, want 1", len(recorded))
	}
	if len(recorded[0].UserAgent) != 500 {
		t.Errorf("user agent length = %d, want 500", len(recorded[0].UserAgent))
	}
}

func TestRegisterClickNilCollaborators(t *testing.T) {
	codec := attribution.NewCodec(attribution.NewSigner("test-secret", zap.NewNop()))
	svc := NewTrackingService(codec, nil, nil, nil, zap.NewNop())

	result := svc.RegisterClick(context.Background(), "https://x.test/p", "https://x.test/p", "1.2.3.4", "ua")
	if result == nil {
		t.Fatal("result must never be nil")
	}
}

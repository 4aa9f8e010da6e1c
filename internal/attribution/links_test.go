package attribution

import (
	"net/url"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func newTestLinkBuilder(t *testing.T) (*LinkBuilder, *Codec) {
	t.Helper()
	codec := NewCodec(NewSigner("test-secret", zap.NewNop()))
	return NewLinkBuilder(codec, "https://shop.nmbr.co", "https://app.nmbr.co"), codec
}

func TestEmailLinkOverridesUTM(t *testing.T) {
	builder, codec := newTestLinkBuilder(t)

	link := builder.EmailLink("https://x.test/story", Params{
		NmbrID:      String("n1"),
		CampaignID:  String("camp-1"),
		UTMSource:   String("caller-source"),
		UTMMedium:   String("caller-medium"),
		UTMCampaign: String("caller-campaign"),
	})

	got, ok := codec.DecodeFromURL(link)
	if !ok {
		t.Fatal("email link must verify")
	}
	if *got.UTMSource != "nmbr_email" || *got.UTMMedium != "update" {
		t.Errorf("UTM channel fields not forced: source=%v medium=%v", *got.UTMSource, *got.UTMMedium)
	}
	if *got.UTMCampaign != "camp-1" {
		t.Errorf("utm_campaign = %q, want campaign id", *got.UTMCampaign)
	}
	if *got.NmbrID != "n1" {
		t.Errorf("NmbrID = %q, want n1", *got.NmbrID)
	}
}

func TestEmailLinkDefaultCampaign(t *testing.T) {
	builder, codec := newTestLinkBuilder(t)

	tests := []struct {
		name   string
		params Params
	}{
		{"absent campaign", Params{NmbrID: String("n1")}},
		{"empty campaign", Params{NmbrID: String("n1"), CampaignID: String("")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := codec.DecodeFromURL(builder.EmailLink("https://x.test/p", tt.params))
			if !ok {
				t.Fatal("email link must verify")
			}
			if got.UTMCampaign == nil || *got.UTMCampaign != "newsletter" {
				t.Errorf("utm_campaign = %v, want newsletter", got.UTMCampaign)
			}
		})
	}
}

func TestEmailLinkDoesNotMutateInput(t *testing.T) {
	builder, _ := newTestLinkBuilder(t)

	p := Params{NmbrID: String("n1")}
	builder.EmailLink("https://x.test/p", p)
	if p.UTMSource != nil || p.UTMMedium != nil || p.UTMCampaign != nil {
		t.Errorf("caller params mutated: %+v", p)
	}
}

func TestProductLinkBases(t *testing.T) {
	builder, codec := newTestLinkBuilder(t)

	marketplace := builder.ProductLink("tote-bag", "", Params{}, true)
	if !strings.HasPrefix(marketplace, "https://shop.nmbr.co/marketplace/tote-bag?") {
		t.Errorf("marketplace link = %q", marketplace)
	}

	storefront := builder.ProductLink("tote-bag", "riverside", Params{}, false)
	if !strings.HasPrefix(storefront, "https://app.nmbr.co/riverside/store/tote-bag?") {
		t.Errorf("storefront link = %q", storefront)
	}

	for _, link := range []string{marketplace, storefront} {
		if _, ok := codec.DecodeFromURL(link); !ok {
			t.Errorf("product link must verify: %q", link)
		}
	}
}

func TestCheckoutLink(t *testing.T) {
	builder, codec := newTestLinkBuilder(t)

	link := builder.CheckoutLink("prod-1", "var-2", 3, "riverside", Params{NmbrID: String("n1")})
	if !strings.HasPrefix(link, "https://app.nmbr.co/riverside/checkout?") {
		t.Fatalf("checkout link = %q", link)
	}

	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("failed to parse link: %v", err)
	}
	q := u.Query()
	if q.Get("sku") != "prod-1" || q.Get("variant") != "var-2" || q.Get("qty") != "3" {
		t.Errorf("commerce params = sku:%q variant:%q qty:%q", q.Get("sku"), q.Get("variant"), q.Get("qty"))
	}

	// Commerce params ride outside the signature.
	got, ok := codec.DecodeFromURL(link)
	if !ok {
		t.Fatal("checkout link must verify despite unsigned commerce params")
	}
	if *got.NmbrID != "n1" {
		t.Errorf("NmbrID = %q, want n1", *got.NmbrID)
	}
}

func TestCheckoutLinkDefaults(t *testing.T) {
	builder, _ := newTestLinkBuilder(t)

	link := builder.CheckoutLink("prod-1", "", 0, "riverside", Params{})
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("failed to parse link: %v", err)
	}
	q := u.Query()
	if q.Get("qty") != "1" {
		t.Errorf("qty = %q, want 1 when quantity is not positive", q.Get("qty"))
	}
	if q.Has("variant") {
		t.Error("variant must be omitted when empty")
	}
}

package attribution

import (
	"fmt"
	"net/url"
	"strconv"
)

// LinkBuilder composes outbound URLs (email links, product links,
// one-click checkout links) from campaign context and the codec.
type LinkBuilder struct {
	codec           *Codec
	marketplaceBase string
	storefrontBase  string
}

// NewLinkBuilder creates a builder over the shared marketplace and
// per-organization storefront base URLs.
func NewLinkBuilder(codec *Codec, marketplaceBase, storefrontBase string) *LinkBuilder {
	return &LinkBuilder{
		codec:           codec,
		marketplaceBase: marketplaceBase,
		storefrontBase:  storefrontBase,
	}
}

// AttributionURL signs the tuple onto an arbitrary base URL.
func (b *LinkBuilder) AttributionURL(base string, p Params) string {
	return b.codec.EncodeToURL(base, p)
}

// EmailLink overlays the fixed email-channel UTM values before
// encoding. Caller-supplied UTM fields are overridden, not merged, so
// email-channel reporting stays consistent.
func (b *LinkBuilder) EmailLink(base string, p Params) string {
	p = p.Clone()
	p.UTMSource = String("nmbr_email")
	p.UTMMedium = String("update")
	campaign := "newsletter"
	if p.CampaignID != nil && *p.CampaignID != "" {
		campaign = *p.CampaignID
	}
	p.UTMCampaign = String(campaign)
	return b.codec.EncodeToURL(base, p)
}

// ProductLink builds a signed email link to a product page, on the
// shared marketplace or the organization's own storefront.
func (b *LinkBuilder) ProductLink(productSlug, orgSlug string, p Params, marketplace bool) string {
	var base string
	if marketplace {
		base = fmt.Sprintf("%s/marketplace/%s", b.marketplaceBase, productSlug)
	} else {
		base = fmt.Sprintf("%s/%s/store/%s", b.storefrontBase, orgSlug, productSlug)
	}
	return b.EmailLink(base, p)
}

// CheckoutLink builds a signed one-click checkout link and appends the
// commerce parameters after the signed query string. sku, variant and
// qty stay outside the signature: they describe cart contents, not
// attribution provenance, and the client may legitimately edit them
// before checkout.
func (b *LinkBuilder) CheckoutLink(productID, variantID string, quantity int, orgSlug string, p Params) string {
	base := fmt.Sprintf("%s/%s/checkout", b.storefrontBase, orgSlug)
	link := b.EmailLink(base, p)

	if quantity <= 0 {
		quantity = 1
	}
	extra := url.Values{}
	extra.Set("sku", productID)
	if variantID != "" {
		extra.Set("variant", variantID)
	}
	extra.Set("qty", strconv.Itoa(quantity))
	return link + "&" + extra.Encode()
}

package models

import (
	"time"

	"github.com/nmbrhq/commerce-engine/internal/attribution"
	"github.com/nmbrhq/commerce-engine/internal/pricing"
)

// OrderAttribution is the provenance snapshot attached to a recorded
// order: the verified attribution tuple flattened for persistence. An
// order without one is an organic purchase, not an error.
type OrderAttribution struct {
	NmbrID      string `json:"nmbr_id,omitempty"`
	UpdateID    string `json:"update_id,omitempty"`
	CampaignID  string `json:"campaign_id,omitempty"`
	RecipientID string `json:"recipient_id,omitempty"`
	UTMSource   string `json:"utm_source,omitempty"`
	UTMMedium   string `json:"utm_medium,omitempty"`
	UTMCampaign string `json:"utm_campaign,omitempty"`
	UTMTerm     string `json:"utm_term,omitempty"`
	UTMContent  string `json:"utm_content,omitempty"`
	Referrer    string `json:"referrer,omitempty"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// AttributionFromParams flattens a verified tuple for storage.
func AttributionFromParams(p attribution.Params) *OrderAttribution {
	return &OrderAttribution{
		NmbrID:      deref(p.NmbrID),
		UpdateID:    deref(p.UpdateID),
		CampaignID:  deref(p.CampaignID),
		RecipientID: deref(p.RecipientID),
		UTMSource:   deref(p.UTMSource),
		UTMMedium:   deref(p.UTMMedium),
		UTMCampaign: deref(p.UTMCampaign),
		UTMTerm:     deref(p.UTMTerm),
		UTMContent:  deref(p.UTMContent),
		Referrer:    deref(p.Referrer),
	}
}

// Order is a recorded marketplace transaction carrying both the pricing
// breakdown computed at checkout and the attribution that produced it.
// Payment capture happens downstream; only the final total leaves here.
type Order struct {
	ID          string                 `json:"id"`
	OrgID       string                 `json:"org_id"`
	ProductID   string                 `json:"product_id"`
	VariantID   string                 `json:"variant_id,omitempty"`
	Quantity    int                    `json:"quantity"`
	Tier        pricing.TierName       `json:"tier"`
	Pricing     pricing.ProductPricing `json:"pricing"`
	Attribution *OrderAttribution      `json:"attribution,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

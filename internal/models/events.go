package models

import "time"

// ClickEvent records a verified click-through on an attributed link.
// Events feed analytics only; losing one never blocks the redirect.
type ClickEvent struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	NmbrID      string    `json:"nmbr_id,omitempty"`
	UpdateID    string    `json:"update_id,omitempty"`
	CampaignID  string    `json:"campaign_id,omitempty"`
	RecipientID string    `json:"recipient_id,omitempty"`
	UTMSource   string    `json:"utm_source,omitempty"`
	UTMMedium   string    `json:"utm_medium,omitempty"`
	UTMCampaign string    `json:"utm_campaign,omitempty"`
	TargetURL   string    `json:"target_url"`
	Attributed  bool      `json:"attributed"`
	Country     string    `json:"country,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`
}

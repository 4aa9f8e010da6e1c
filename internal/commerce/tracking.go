package commerce

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nmbrhq/commerce-engine/internal/attribution"
	"github.com/nmbrhq/commerce-engine/internal/geo"
	"github.com/nmbrhq/commerce-engine/internal/metrics"
	"github.com/nmbrhq/commerce-engine/internal/models"
	"github.com/nmbrhq/commerce-engine/internal/storage"
)

// TrackingService handles click-throughs on attributed links: verify
// the attribution, record an analytics event and hand back the cookie
// for view-through attribution. Every step is best-effort; a failed
// decode or lost event never blocks the recipient's redirect.
type TrackingService struct {
	codec   *attribution.Codec
	events  storage.ClickEventStore
	geo     geo.Provider
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewTrackingService creates a tracking service. events and geoProvider
// may be nil, disabling analytics persistence and country enrichment.
func NewTrackingService(
	codec *attribution.Codec,
	events storage.ClickEventStore,
	geoProvider geo.Provider,
	m *metrics.Metrics,
	logger *zap.Logger,
) *TrackingService {
	return &TrackingService{
		codec:   codec,
		events:  events,
		geo:     geoProvider,
		metrics: m,
		logger:  logger,
	}
}

// ClickResult carries what the redirect handler needs: the verified
// tuple (nil when unattributed) and the Set-Cookie value to persist it.
type ClickResult struct {
	Params *attribution.Params
	Cookie string
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

// RegisterClick decodes and verifies the attribution from the clicked
// URL, records a click event and returns the cookie to set. Always
// returns a usable result.
func (s *TrackingService) RegisterClick(ctx context.Context, clickedURL, targetURL, ip, userAgent string) *ClickResult {
	params, verified := s.codec.DecodeFromURL(clickedURL)
	if s.metrics != nil {
		s.metrics.RecordDecode("url", verified)
	}

	country := ""
	if s.geo != nil && ip != "" {
		country = s.geo.Country(ip)
	}

	event := &models.ClickEvent{
		ID:         uuid.New().String(),
		Timestamp:  time.Now().UTC(),
		TargetURL:  targetURL,
		Attributed: verified,
		Country:    country,
		UserAgent:  truncate(userAgent, 500),
	}
	if verified {
		fill := func(dst *string, src *string) {
			if src != nil {
				*dst = *src
			}
		}
		fill(&event.NmbrID, params.NmbrID)
		fill(&event.UpdateID, params.UpdateID)
		fill(&event.CampaignID, params.CampaignID)
		fill(&event.RecipientID, params.RecipientID)
		fill(&event.UTMSource, params.UTMSource)
		fill(&event.UTMMedium, params.UTMMedium)
		fill(&event.UTMCampaign, params.UTMCampaign)
	}

	if s.events != nil {
		if err := s.events.SaveClickEvent(ctx, event); err != nil {
			s.logger.Error("failed to save click event",
				zap.String("event_id", event.ID),
				zap.Error(err),
			)
			// Continue anyway - don't block the redirect
		}
	}
	if s.metrics != nil {
		s.metrics.RecordClickEvent(country)
	}

	s.logger.Debug("click registered",
		zap.String("event_id", event.ID),
		zap.Bool("attributed", verified),
		zap.String("country", country),
	)

	if !verified {
		return &ClickResult{}
	}
	return &ClickResult{
		Params: &params,
		Cookie: s.codec.EncodeToCookie(params),
	}
}

package httpserver

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/nmbrhq/commerce-engine/internal/attribution"
	"github.com/nmbrhq/commerce-engine/internal/commerce"
	"github.com/nmbrhq/commerce-engine/internal/config"
	"github.com/nmbrhq/commerce-engine/internal/geo"
	"github.com/nmbrhq/commerce-engine/internal/metrics"
	"github.com/nmbrhq/commerce-engine/internal/middleware"
	"github.com/nmbrhq/commerce-engine/internal/pricing"
	"github.com/nmbrhq/commerce-engine/internal/revenue"
	"github.com/nmbrhq/commerce-engine/internal/storage"
)

// Dependencies holds all external dependencies for the server. Nil
// stores fall back to in-memory implementations; a nil Geo provider
// disables country enrichment.
type Dependencies struct {
	Orders  storage.OrderStore
	Events  storage.ClickEventStore
	Tracker revenue.Tracker
	Geo     geo.Provider
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Server wraps HTTP handlers and the commerce services.
type Server struct {
	signer    *attribution.Signer
	codec     *attribution.Codec
	links     *attribution.LinkBuilder
	engine    *pricing.Engine
	checkout  *commerce.CheckoutService
	tracking  *commerce.TrackingService
	reporting *commerce.ReportingService
	logger    *zap.Logger
	config    *config.Config
	metrics   *metrics.Metrics
}

// NewServer constructs a new http.Handler with all routes registered.
func NewServer(deps *Dependencies) http.Handler {
	cfg := deps.Config

	orders := deps.Orders
	if orders == nil {
		orders = storage.NewInMemoryOrderStore()
	}
	events := deps.Events
	if events == nil {
		events = storage.NewInMemoryClickEventStore()
	}
	tracker := deps.Tracker
	if tracker == nil {
		tracker = revenue.NewInMemoryTracker()
	}

	signer := attribution.NewSigner(cfg.Attribution.SecretKey, deps.Logger)
	codec := attribution.NewCodec(signer)
	links := attribution.NewLinkBuilder(codec,
		cfg.Attribution.MarketplaceBaseURL,
		cfg.Attribution.StorefrontBaseURL,
	)

	engine := pricing.NewEngine(pricing.Config{
		PlatformFeePercentage:    cfg.Pricing.PlatformFeePercentage,
		DropshipMarkupPercentage: cfg.Pricing.DropshipMarkupPercentage,
		MinimumMarkup:            cfg.Pricing.MinimumMarkup,
		MaximumMarkup:            cfg.Pricing.MaximumMarkup,
		Currency:                 cfg.Pricing.Currency,
		TaxRate:                  cfg.Pricing.TaxRate,
		ShippingFee:              cfg.Pricing.ShippingFee,
		ProcessingFeeRate:        cfg.Pricing.ProcessingFeeRate,
	}, deps.Logger)

	s := &Server{
		signer:    signer,
		codec:     codec,
		links:     links,
		engine:    engine,
		checkout:  commerce.NewCheckoutService(engine, orders, tracker, deps.Metrics, deps.Logger),
		tracking:  commerce.NewTrackingService(codec, events, deps.Geo, deps.Metrics, deps.Logger),
		reporting: commerce.NewReportingService(orders),
		logger:    deps.Logger,
		config:    cfg,
		metrics:   deps.Metrics,
	}

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", s.handleHealth)

	// Prometheus metrics
	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	// Link generation
	mux.HandleFunc("/links/email", s.handleEmailLink)
	mux.HandleFunc("/links/product", s.handleProductLink)
	mux.HandleFunc("/links/checkout", s.handleCheckoutLink)

	// Click-through redirect
	mux.HandleFunc("/r", s.handleRedirect)

	// Attribution decoding for receiving pages
	mux.HandleFunc("/attribution/decode", s.handleDecode)

	// Checkout
	mux.HandleFunc("/checkout/orders", s.handleCreateOrder)

	// Pricing
	mux.HandleFunc("/pricing/quote", s.handleQuote)
	mux.HandleFunc("/pricing/bulk", s.handleBulkQuote)
	mux.HandleFunc("/pricing/config", s.handlePricingConfig)
	mux.HandleFunc("/pricing/tiers", s.handleTiers)
	mux.HandleFunc("/pricing/breakeven", s.handleBreakEven)
	mux.HandleFunc("/pricing/commission", s.handleCommission)

	// Reporting
	mux.HandleFunc("/reports/revenue", s.handleRevenueReport)

	// Middleware chain, outermost first
	var handler http.Handler = mux
	handler = middleware.NewAuthMiddleware(cfg.Auth, deps.Logger).Handler(handler)
	handler = middleware.NewRateLimitMiddleware(cfg.RateLimit, deps.Metrics, deps.Logger).Handler(handler)
	handler = middleware.NewLoggingMiddleware(deps.Logger).Handler(handler)
	handler = middleware.NewRecoveryMiddleware(deps.Logger).Handler(handler)
	return handler
}

// ---- Health Check ----

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// ---- Link Generation ----

type emailLinkRequest struct {
	BaseURL string             `json:"base_url"`
	Params  attribution.Params `json:"params"`
}

func (s *Server) handleEmailLink(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req emailLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.BaseURL == "" {
		s.errorResponse(w, "base_url is required", http.StatusBadRequest)
		return
	}
	if s.metrics != nil {
		s.metrics.RecordLink("email")
	}
	s.jsonResponse(w, map[string]string{"url": s.links.EmailLink(req.BaseURL, req.Params)})
}

type productLinkRequest struct {
	ProductSlug string             `json:"product_slug"`
	OrgSlug     string             `json:"org_slug"`
	Marketplace bool               `json:"marketplace"`
	Params      attribution.Params `json:"params"`
}

func (s *Server) handleProductLink(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req productLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.ProductSlug == "" {
		s.errorResponse(w, "product_slug is required", http.StatusBadRequest)
		return
	}
	if !req.Marketplace && req.OrgSlug == "" {
		s.errorResponse(w, "org_slug is required for storefront links", http.StatusBadRequest)
		return
	}
	if s.metrics != nil {
		s.metrics.RecordLink("product")
	}
	url := s.links.ProductLink(req.ProductSlug, req.OrgSlug, req.Params, req.Marketplace)
	s.jsonResponse(w, map[string]string{"url": url})
}

type checkoutLinkRequest struct {
	ProductID string             `json:"product_id"`
	VariantID string             `json:"variant_id,omitempty"`
	Quantity  int                `json:"quantity"`
	OrgSlug   string             `json:"org_slug"`
	Params    attribution.Params `json:"params"`
}

func (s *Server) handleCheckoutLink(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req checkoutLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.ProductID == "" || req.OrgSlug == "" {
		s.errorResponse(w, "product_id and org_slug are required", http.StatusBadRequest)
		return
	}
	if s.metrics != nil {
		s.metrics.RecordLink("checkout")
	}
	url := s.links.CheckoutLink(req.ProductID, req.VariantID, req.Quantity, req.OrgSlug, req.Params)
	s.jsonResponse(w, map[string]string{"url": url})
}

// ---- Click-Through Redirect ----

func (s *Server) handleRedirect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	target := r.URL.Query().Get("u")
	if !safeRedirectTarget(target) {
		target = "/"
	}

	result := s.tracking.RegisterClick(r.Context(), r.URL.String(), target, clientIP(r), r.UserAgent())
	if result.Cookie != "" {
		w.Header().Add("Set-Cookie", result.Cookie)
	}

	http.Redirect(w, r, target, http.StatusFound)
}

// safeRedirectTarget restricts redirects to http(s) URLs and site-local
// paths so the endpoint cannot be abused as an open proxy for other
// schemes.
func safeRedirectTarget(target string) bool {
	if target == "" {
		return false
	}
	if strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") {
		return true
	}
	return strings.HasPrefix(target, "https://") || strings.HasPrefix(target, "http://")
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ---- Attribution Decode ----

type decodeRequest struct {
	URL          string `json:"url,omitempty"`
	CookieHeader string `json:"cookie_header,omitempty"`
}

type decodeResponse struct {
	Attributed bool                `json:"attributed"`
	Params     *attribution.Params `json:"params,omitempty"`
}

func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req decodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, "invalid json", http.StatusBadRequest)
		return
	}

	var (
		params attribution.Params
		ok     bool
		source string
	)
	switch {
	case req.URL != "":
		source = "url"
		params, ok = s.codec.DecodeFromURL(req.URL)
	case req.CookieHeader != "":
		source = "cookie"
		params, ok = s.codec.DecodeFromCookie(req.CookieHeader)
	default:
		s.errorResponse(w, "url or cookie_header is required", http.StatusBadRequest)
		return
	}

	if s.metrics != nil {
		s.metrics.RecordDecode(source, ok)
	}
	resp := decodeResponse{Attributed: ok}
	if ok {
		resp.Params = &params
	}
	s.jsonResponse(w, resp)
}

// ---- Checkout ----

type createOrderRequest struct {
	commerce.OrderRequest
	// AttributionURL is the landing URL the buyer arrived on; the
	// cookie header covers view-through attribution when the URL has
	// no verifiable bag.
	AttributionURL string `json:"attribution_url,omitempty"`
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, "invalid json", http.StatusBadRequest)
		return
	}

	attr := s.resolveAttribution(req.AttributionURL, r.Header.Get("Cookie"))

	order, err := s.checkout.CreateOrder(r.Context(), req.OrderRequest, attr)
	if err != nil {
		s.logger.Error("failed to create order", zap.Error(err))
		s.errorResponse(w, "failed to create order: "+err.Error(), http.StatusBadRequest)
		return
	}
	s.jsonResponse(w, order)
}

// resolveAttribution tries click-through first, then the view-through
// cookie. Both failing simply means an organic order.
func (s *Server) resolveAttribution(attributionURL, cookieHeader string) *attribution.Params {
	if attributionURL != "" {
		if params, ok := s.codec.DecodeFromURL(attributionURL); ok {
			if s.metrics != nil {
				s.metrics.RecordDecode("url", true)
			}
			return &params
		}
		if s.metrics != nil {
			s.metrics.RecordDecode("url", false)
		}
	}
	if cookieHeader != "" {
		if params, ok := s.codec.DecodeFromCookie(cookieHeader); ok {
			if s.metrics != nil {
				s.metrics.RecordDecode("cookie", true)
			}
			return &params
		}
		if s.metrics != nil {
			s.metrics.RecordDecode("cookie", false)
		}
	}
	return nil
}

// ---- Pricing ----

type quoteRequest struct {
	BasePrice      float64 `json:"base_price"`
	DropshipCost   float64 `json:"dropship_cost"`
	Quantity       int     `json:"quantity,omitempty"`
	Tier           string  `json:"tier,omitempty"`
	MonthlyRevenue float64 `json:"monthly_revenue,omitempty"`
}

type quoteResponse struct {
	Tier     pricing.TierName       `json:"tier"`
	Currency string                 `json:"currency"`
	Pricing  pricing.ProductPricing `json:"pricing"`
	Display  pricing.ProductPricing `json:"display"`
}

// resolveTier picks an explicit tier by name, or derives one from the
// supplied monthly revenue.
func resolveTier(name string, monthlyRevenue float64) (pricing.Tier, error) {
	if name == "" {
		return pricing.TierForRevenue(monthlyRevenue), nil
	}
	for _, t := range pricing.Tiers() {
		if string(t.Name) == name {
			return t, nil
		}
	}
	return pricing.Tier{}, fmt.Errorf("unknown tier %q", name)
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, "invalid json", http.StatusBadRequest)
		return
	}
	tier, err := resolveTier(req.Tier, req.MonthlyRevenue)
	if err != nil {
		s.errorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	pp, err := s.engine.PriceProduct(req.BasePrice, req.DropshipCost, tier)
	if err != nil {
		s.errorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	if s.metrics != nil {
		s.metrics.RecordPricing("quote")
	}
	s.jsonResponse(w, quoteResponse{
		Tier:     tier.Name,
		Currency: s.engine.Config().Currency,
		Pricing:  pp,
		Display:  pp.ForDisplay(),
	})
}

func (s *Server) handleBulkQuote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, "invalid json", http.StatusBadRequest)
		return
	}
	tier, err := resolveTier(req.Tier, req.MonthlyRevenue)
	if err != nil {
		s.errorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	pp, err := s.engine.PriceBulk(req.BasePrice, req.DropshipCost, req.Quantity, tier)
	if err != nil {
		s.errorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	if s.metrics != nil {
		s.metrics.RecordPricing("bulk")
	}
	s.jsonResponse(w, quoteResponse{
		Tier:     tier.Name,
		Currency: s.engine.Config().Currency,
		Pricing:  pp,
		Display:  pp.ForDisplay(),
	})
}

func (s *Server) handlePricingConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.jsonResponse(w, s.engine.Config())

	case http.MethodPatch:
		var patch pricing.ConfigPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			s.errorResponse(w, "invalid json", http.StatusBadRequest)
			return
		}
		s.jsonResponse(w, s.engine.UpdateConfig(patch))

	default:
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleTiers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.jsonResponse(w, pricing.Tiers())
}

type breakEvenRequest struct {
	BasePrice      float64 `json:"base_price"`
	DropshipCost   float64 `json:"dropship_cost"`
	FixedCosts     float64 `json:"fixed_costs"`
	Tier           string  `json:"tier,omitempty"`
	MonthlyRevenue float64 `json:"monthly_revenue,omitempty"`
}

func (s *Server) handleBreakEven(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req breakEvenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, "invalid json", http.StatusBadRequest)
		return
	}
	tier, err := resolveTier(req.Tier, req.MonthlyRevenue)
	if err != nil {
		s.errorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	qty, ok, err := s.engine.BreakEvenQuantity(req.BasePrice, req.DropshipCost, req.FixedCosts, tier)
	if err != nil {
		s.errorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.jsonResponse(w, map[string]any{
		"quantity":   qty,
		"achievable": ok,
	})
}

type commissionRequest struct {
	OrderValue float64 `json:"order_value"`
	Partner    string  `json:"partner"`
}

func (s *Server) handleCommission(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req commissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, "invalid json", http.StatusBadRequest)
		return
	}
	commission, err := pricing.DropshipCommission(req.OrderValue, req.Partner)
	if err != nil {
		s.errorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.jsonResponse(w, map[string]float64{"commission": commission})
}

// ---- Reporting ----

func (s *Server) handleRevenueReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	orgID := r.URL.Query().Get("org_id")
	if orgID == "" {
		s.errorResponse(w, "org_id required", http.StatusBadRequest)
		return
	}

	breakdown, count, err := s.reporting.RevenueReport(r.Context(), orgID)
	if err != nil {
		s.logger.Error("failed to build revenue report", zap.Error(err))
		s.errorResponse(w, "failed to build report", http.StatusInternalServerError)
		return
	}
	s.jsonResponse(w, map[string]any{
		"org_id":    orgID,
		"orders":    count,
		"breakdown": breakdown.ForDisplay(),
	})
}

// ---- Helper Methods ----

func (s *Server) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) errorResponse(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

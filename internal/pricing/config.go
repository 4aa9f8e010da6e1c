package pricing

import (
	"sync"

	"go.uber.org/zap"
)

// Config holds the process-wide pricing rates. It is read by every
// computation and replaced wholesale on update; a change affects only
// computations performed after it, never recorded orders.
type Config struct {
	PlatformFeePercentage    float64 `json:"platform_fee_percentage"`
	DropshipMarkupPercentage float64 `json:"dropship_markup_percentage"`
	MinimumMarkup            float64 `json:"minimum_markup"`
	MaximumMarkup            float64 `json:"maximum_markup"`
	Currency                 string  `json:"currency"`
	TaxRate                  float64 `json:"tax_rate"`
	ShippingFee              float64 `json:"shipping_fee"`
	ProcessingFeeRate        float64 `json:"processing_fee_rate"`
}

// DefaultConfig returns the standard platform rates.
func DefaultConfig() Config {
	return Config{
		PlatformFeePercentage:    7,
		DropshipMarkupPercentage: 20,
		MinimumMarkup:            2,
		MaximumMarkup:            50,
		Currency:                 "USD",
		TaxRate:                  0.08,
		ShippingFee:              5.99,
		ProcessingFeeRate:        0.029,
	}
}

// ConfigPatch is a partial config update. Only non-nil fields are
// applied; the rest keep their current values.
type ConfigPatch struct {
	PlatformFeePercentage    *float64 `json:"platform_fee_percentage,omitempty"`
	DropshipMarkupPercentage *float64 `json:"dropship_markup_percentage,omitempty"`
	MinimumMarkup            *float64 `json:"minimum_markup,omitempty"`
	MaximumMarkup            *float64 `json:"maximum_markup,omitempty"`
	Currency                 *string  `json:"currency,omitempty"`
	TaxRate                  *float64 `json:"tax_rate,omitempty"`
	ShippingFee              *float64 `json:"shipping_fee,omitempty"`
	ProcessingFeeRate        *float64 `json:"processing_fee_rate,omitempty"`
}

// Engine computes order pricing against a concurrency-safe config.
// Every operation is a pure function of its inputs and the config at
// call time; readers observe either the old or the new config in full,
// never a partial merge.
type Engine struct {
	mu     sync.RWMutex
	cfg    Config
	logger *zap.Logger
}

// NewEngine constructs an engine with the given starting config.
func NewEngine(cfg Config, logger *zap.Logger) *Engine {
	return &Engine{cfg: cfg, logger: logger}
}

// Config returns a snapshot of the current configuration.
func (e *Engine) Config() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// UpdateConfig applies the supplied fields atomically with respect to
// concurrent readers.
func (e *Engine) UpdateConfig(patch ConfigPatch) Config {
	e.mu.Lock()
	defer e.mu.Unlock()

	if patch.PlatformFeePercentage != nil {
		e.cfg.PlatformFeePercentage = *patch.PlatformFeePercentage
	}
	if patch.DropshipMarkupPercentage != nil {
		e.cfg.DropshipMarkupPercentage = *patch.DropshipMarkupPercentage
	}
	if patch.MinimumMarkup != nil {
		e.cfg.MinimumMarkup = *patch.MinimumMarkup
	}
	if patch.MaximumMarkup != nil {
		e.cfg.MaximumMarkup = *patch.MaximumMarkup
	}
	if patch.Currency != nil {
		e.cfg.Currency = *patch.Currency
	}
	if patch.TaxRate != nil {
		e.cfg.TaxRate = *patch.TaxRate
	}
	if patch.ShippingFee != nil {
		e.cfg.ShippingFee = *patch.ShippingFee
	}
	if patch.ProcessingFeeRate != nil {
		e.cfg.ProcessingFeeRate = *patch.ProcessingFeeRate
	}

	e.logger.Info("pricing config updated",
		zap.Float64("platform_fee_pct", e.cfg.PlatformFeePercentage),
		zap.Float64("dropship_markup_pct", e.cfg.DropshipMarkupPercentage),
		zap.Float64("tax_rate", e.cfg.TaxRate),
	)
	return e.cfg
}

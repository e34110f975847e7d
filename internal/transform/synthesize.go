// =============================================================================
// Retail ETL - Field Synthesizer
// =============================================================================
//
// The retail export has no Quantity or Profit column. The synthesizer fills
// them for every record that lacks them:
//
//   quantity = uniform integer in [QuantityMin, QuantityMax]     (default 1..5)
//   profit   = sales * margin, margin uniform in [MarginMin, MarginMax)
//                                                          (default 0.10..0.30)
//
// Values are drawn independently per record from an injected RandSource.
//
// =============================================================================

package transform

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ghazalyy/RetailAnalyticsApp/internal/config"
	"github.com/ghazalyy/RetailAnalyticsApp/internal/types"
)

// RandSource is the randomness the synthesizer draws from.
// *rand.Rand from math/rand/v2 satisfies it.
type RandSource interface {
	IntN(n int) int
	Float64() float64
}

// NewRandSource returns a PCG-backed source. A zero seed seeds from the clock.
func NewRandSource(seed uint64) RandSource {
	if seed == 0 {
		now := uint64(time.Now().UnixNano())
		return rand.New(rand.NewPCG(now, now>>1|1))
	}
	return rand.New(rand.NewPCG(seed, seed))
}

// Synthesizer fills missing quantity and profit values.
type Synthesizer struct {
	src         RandSource
	quantityMin int
	quantityMax int
	marginMin   float64
	marginMax   float64
}

// SynthOption configures a Synthesizer.
type SynthOption func(*Synthesizer)

// WithQuantityRange sets the inclusive quantity bounds.
func WithQuantityRange(min, max int) SynthOption {
	return func(s *Synthesizer) {
		s.quantityMin, s.quantityMax = min, max
	}
}

// WithMarginRange sets the half-open margin bounds [min, max).
func WithMarginRange(min, max float64) SynthOption {
	return func(s *Synthesizer) {
		s.marginMin, s.marginMax = min, max
	}
}

// WithSettings applies the synthesis section of the configuration.
func WithSettings(cfg config.Synthesis) SynthOption {
	return func(s *Synthesizer) {
		WithQuantityRange(cfg.QuantityMin, cfg.QuantityMax)(s)
		WithMarginRange(cfg.MarginMin, cfg.MarginMax)(s)
	}
}

// NewSynthesizer creates a Synthesizer with the default bounds unless
// overridden by opts.
func NewSynthesizer(src RandSource, opts ...SynthOption) *Synthesizer {
	s := &Synthesizer{
		src:         src,
		quantityMin: 1,
		quantityMax: 5,
		marginMin:   0.10,
		marginMax:   0.30,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize fills records in place and reports how many quantities and
// profits were generated.
func (s *Synthesizer) Synthesize(records []types.Record) (quantities, profits int) {
	for i := range records {
		rec := &records[i]
		if !rec.HasQuantity {
			rec.Quantity = s.quantity()
			rec.HasQuantity = true
			quantities++
		}
		if !rec.HasProfit {
			rec.Profit = rec.Sales.Mul(decimal.NewFromFloat(s.margin()))
			rec.HasProfit = true
			profits++
		}
	}
	return quantities, profits
}

func (s *Synthesizer) quantity() int {
	return s.quantityMin + s.src.IntN(s.quantityMax-s.quantityMin+1)
}

func (s *Synthesizer) margin() float64 {
	m := s.marginMin + s.src.Float64()*(s.marginMax-s.marginMin)
	// rounding can land exactly on the open upper bound
	if m >= s.marginMax {
		m = math.Nextafter(s.marginMax, s.marginMin)
	}
	if m < s.marginMin {
		m = s.marginMin
	}
	return m
}

package synthetic

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/peter-kozarec/solstice/pkg/common"
	"github.com/peter-kozarec/solstice/pkg/utility/fixed"
)

// NewEquityQuoteGenerator wires a QuoteGenerator with parameters typical
// for a liquid 100-dollar stock. The caller picks the simulated start
// time, so backtests stay reproducible.
func NewEquityQuoteGenerator(symbol string, rng *rand.Rand, startTime common.Millis, duration time.Duration, mu, sigma float64) *QuoteGenerator {

	const (
		equityStartPrice    = 100.00
		equityTypicalSpread = 0.04 // 4 cents spread
		equityMinSpread     = 0.01 // 1 cent minimum
		equityMaxSpread     = 0.10 // 10 cents maximum

		avgQuoteIntervalMillis = 250  // quarter second average between quotes
		quoteTimingVariability = 0.45 // 45% timing variation

		avgSizeShares   = 200  // 200 shares average size
		sizeVariability = 0.65 // 65% size variance

		spreadVolatility = 0.12 // 12% spread volatility

		normPriceDigits = 4
	)

	avgQuoteInterval := avgQuoteIntervalMillis * time.Millisecond
	estimatedQuotes := duration.Milliseconds() / avgQuoteIntervalMillis

	secondsPerYear := 365.25 * 24 * 3600
	deltaT := fixed.FromFloat64(avgQuoteIntervalMillis / 1000.0 / secondsPerYear)

	generator := NewQuoteGenerator(
		symbol,
		rng,
		startTime,
		fixed.FromFloat64(equityStartPrice),
		fixed.FromFloat64(equityTypicalSpread),
		fixed.FromFloat64(mu),
		fixed.FromFloat64(sigma),
		deltaT,
		estimatedQuotes,
	)

	generator.SetQuoteParameters(avgQuoteInterval, quoteTimingVariability, avgSizeShares, sizeVariability)
	generator.SetSpreadDynamics(spreadVolatility, fixed.FromFloat64(equityMinSpread), fixed.FromFloat64(equityMaxSpread))
	generator.SetPriceDigits(normPriceDigits)

	slog.Debug("equity synthetic quote generator configuration",
		"symbol", symbol,
		"duration", duration,
		"mu_annual", mu,
		"sigma_annual", sigma,
		"start_price", equityStartPrice,
		"avg_spread_cents", equityTypicalSpread*100,
		"avg_quote_interval_ms", avgQuoteIntervalMillis,
		"estimated_quotes", estimatedQuotes,
		"start_time", startTime,
	)

	return generator
}

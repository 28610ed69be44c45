package synthetic

import (
	"context"
	"math/rand"
	"time"

	"github.com/peter-kozarec/solstice/pkg/common"
	"github.com/peter-kozarec/solstice/pkg/datasource"
	"github.com/peter-kozarec/solstice/pkg/utility/fixed"
)

var pointFive = fixed.FromInt64(5, 1)

// QuoteGenerator produces a geometric-brownian-motion quote stream with a
// mean-reverting spread, jittered arrival times and lognormal sizes. All
// randomness comes from the injected rng and all timestamps advance a
// simulated clock, so a seeded generator replays the same stream.
type QuoteGenerator struct {
	symbol string
	rng    *rand.Rand

	startTime  common.Millis
	baseSpread fixed.Point
	mu         fixed.Point
	sigma      fixed.Point
	deltaT     fixed.Point
	steps      int64
	t          int64

	avgQuoteInterval time.Duration
	quoteVariability float64

	avgSize      int64
	sizeVariance float64

	deltaLogPre1 fixed.Point
	deltaLogPre2 fixed.Point

	spreadVolatility float64
	minSpread        fixed.Point
	maxSpread        fixed.Point

	lastTime      common.Millis
	lastPrice     fixed.Point
	currentSpread fixed.Point

	normPriceDigits int
}

func NewQuoteGenerator(
	symbol string,
	rng *rand.Rand,
	startTime common.Millis,
	startPrice, fullSpread, mu, sigma, deltaT fixed.Point,
	steps int64) *QuoteGenerator {

	return &QuoteGenerator{
		symbol: symbol,
		rng:    rng,

		startTime:  startTime,
		baseSpread: fullSpread.DivInt64(2),
		mu:         mu,
		sigma:      sigma,
		deltaT:     deltaT,
		steps:      steps,

		avgQuoteInterval: 250 * time.Millisecond,
		quoteVariability: 0.3,

		avgSize:      100,
		sizeVariance: 0.5,

		spreadVolatility: 0.1,
		minSpread:        fullSpread.Mul(fixed.FromInt64(5, 1)),
		maxSpread:        fullSpread.Mul(fixed.FromInt64(15, 1)),

		// Pre-calculated values for GBM
		deltaLogPre1: mu.Sub(sigma.Mul(sigma).Mul(pointFive)).Mul(deltaT),
		deltaLogPre2: sigma.Mul(deltaT.Sqrt()),

		lastTime:      startTime,
		lastPrice:     startPrice,
		currentSpread: fullSpread.DivInt64(2),

		normPriceDigits: 4,
	}
}

func (g *QuoteGenerator) SetQuoteParameters(avgInterval time.Duration, intervalVariability float64, avgSize int64, sizeVariance float64) {
	g.avgQuoteInterval = avgInterval
	g.quoteVariability = intervalVariability
	g.avgSize = avgSize
	g.sizeVariance = sizeVariance
}

func (g *QuoteGenerator) SetSpreadDynamics(volatility float64, minSpread, maxSpread fixed.Point) {
	g.spreadVolatility = volatility
	g.minSpread = minSpread
	g.maxSpread = maxSpread
}

func (g *QuoteGenerator) SetPriceDigits(digits int) {
	g.normPriceDigits = digits
}

func (g *QuoteGenerator) Next(_ context.Context) (common.Event, error) {
	if g.t >= g.steps {
		return common.Event{}, datasource.ErrEof
	}

	z := g.rng.NormFloat64()
	deltaLog := g.deltaLogPre1.Add(g.deltaLogPre2.Mul(fixed.FromFloat64(z)))
	g.lastPrice = g.lastPrice.Mul(deltaLog.Exp())

	g.updateSpread()

	g.lastTime += g.nextInterval()
	g.t++

	bidSize, askSize := g.generateSizes()

	ask := g.lastPrice.Add(g.currentSpread)
	bid := g.lastPrice.Sub(g.currentSpread)
	bid, ask = g.addQuoteNoise(bid, ask)

	quote := common.Quote{
		Bid:       bid.Rescale(g.normPriceDigits),
		Ask:       ask.Rescale(g.normPriceDigits),
		BidSize:   bidSize,
		AskSize:   askSize,
		Symbol:    g.symbol,
		TimeStamp: g.lastTime,
	}

	return common.NewEvent(common.TypeQuote, g.symbol, g.lastTime, quote), nil
}

func (g *QuoteGenerator) updateSpread() {
	if g.spreadVolatility <= 0 {
		return
	}

	spreadChange := g.rng.NormFloat64() * g.spreadVolatility
	newSpread := g.currentSpread.Mul(fixed.FromFloat64(1.0 + spreadChange))

	if newSpread.Lt(g.minSpread) {
		g.currentSpread = g.minSpread
	} else if newSpread.Gt(g.maxSpread) {
		g.currentSpread = g.maxSpread
	} else {
		g.currentSpread = newSpread
	}
}

func (g *QuoteGenerator) nextInterval() common.Millis {
	avgMillis := float64(g.avgQuoteInterval.Milliseconds())
	if g.quoteVariability <= 0 {
		return common.Millis(avgMillis)
	}

	interval := g.rng.ExpFloat64() * avgMillis

	minInterval := avgMillis * (1.0 - g.quoteVariability)
	maxInterval := avgMillis * (1.0 + g.quoteVariability*3)

	if interval < minInterval {
		interval = minInterval
	} else if interval > maxInterval {
		interval = maxInterval
	}

	if interval < 1 {
		interval = 1
	}
	return common.Millis(interval)
}

func (g *QuoteGenerator) generateSizes() (bidSize, askSize common.Quantity) {
	bidVariation := g.rng.NormFloat64() * g.sizeVariance
	askVariation := g.rng.NormFloat64() * g.sizeVariance

	bidSize = common.Quantity(float64(g.avgSize) * (1.0 + bidVariation))
	askSize = common.Quantity(float64(g.avgSize) * (1.0 + askVariation))

	// Ensure positive sizes
	if bidSize <= 0 {
		bidSize = 1
	}
	if askSize <= 0 {
		askSize = 1
	}

	return bidSize, askSize
}

func (g *QuoteGenerator) addQuoteNoise(bid, ask fixed.Point) (fixed.Point, fixed.Point) {
	tickSize := g.currentSpread.DivInt64(10)

	bidNoise := fixed.FromFloat64(g.rng.NormFloat64() * 0.1).Mul(tickSize)
	askNoise := fixed.FromFloat64(g.rng.NormFloat64() * 0.1).Mul(tickSize)

	bid = bid.Add(bidNoise)
	ask = ask.Add(askNoise)

	if bid.Gte(ask) {
		mid := bid.Add(ask).DivInt64(2)
		bid = mid.Sub(tickSize)
		ask = mid.Add(tickSize)
	}

	return bid, ask
}

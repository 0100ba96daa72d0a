// Package tradeclient implements the trading-client process: the feature
// engine, position keeper, risk gate, and the market-maker/liquidity-taker
// strategies that sit on top of them (spec.md §4.5).
package tradeclient

import (
	"gonum.org/v1/gonum/stat"

	"github.com/abdoElHodaky/tradsys-core/pkg/types"
)

// volatilityWindow bounds the recent-mid-price history kept for the
// informational volatility figure RecentVolatility reports; it plays
// no part in fair_value/trade_signal, which are defined purely by the
// EWMA recurrence below.
const volatilityWindow = 32

// FeatureEngine recomputes one ticker's TickerFeatures every time its
// BBO changes. Not safe for concurrent use — the trade client drives it
// from a single market-data consumer goroutine.
type FeatureEngine struct {
	alpha   float64
	feature types.TickerFeatures
	history []float64
}

// NewFeatureEngine creates an engine for one ticker with smoothing
// constant alpha (0 < alpha <= 1; larger weighs the latest mid more).
func NewFeatureEngine(ticker types.TickerId, alpha float64) *FeatureEngine {
	return &FeatureEngine{
		alpha:   alpha,
		feature: types.TickerFeatures{Ticker: ticker},
	}
}

// OnBBO recomputes features from a new top-of-book snapshot.
func (f *FeatureEngine) OnBBO(bbo types.BBO) types.TickerFeatures {
	if !bbo.HasBid() || !bbo.HasAsk() {
		return f.feature
	}
	mid := float64(bbo.BidPrice+bbo.AskPrice) / 2
	spread := bbo.AskPrice - bbo.BidPrice

	if !f.feature.Valid {
		f.feature.FairValue = mid
	} else {
		f.feature.FairValue = f.alpha*mid + (1-f.alpha)*f.feature.FairValue
	}

	var imbalance float64
	denom := bbo.BidQty + bbo.AskQty
	if denom != 0 {
		imbalance = float64(int64(bbo.BidQty)-int64(bbo.AskQty)) / float64(denom)
	}

	var signal float64
	if spread != 0 {
		signal = 0.7*(f.feature.FairValue-mid)/float64(spread) + 0.3*imbalance
	} else {
		signal = 0.3 * imbalance
	}
	signal = clamp(signal, -1, 1)

	f.feature.Spread = spread
	f.feature.MidPrice = types.Price(mid)
	f.feature.Imbalance = imbalance
	f.feature.TradeSignal = signal
	f.feature.Valid = true

	f.pushHistory(mid)
	return f.feature
}

// Current returns the most recently computed feature snapshot.
func (f *FeatureEngine) Current() types.TickerFeatures { return f.feature }

// RecentVolatility reports the sample standard deviation of the last
// volatilityWindow mid prices, informational only (the admin handlers
// do not serve it).
func (f *FeatureEngine) RecentVolatility() float64 {
	if len(f.history) < 2 {
		return 0
	}
	return stat.StdDev(f.history, nil)
}

func (f *FeatureEngine) pushHistory(mid float64) {
	f.history = append(f.history, mid)
	if len(f.history) > volatilityWindow {
		f.history = f.history[len(f.history)-volatilityWindow:]
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

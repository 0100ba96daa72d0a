package tradeclient

import (
	"math"

	"github.com/abdoElHodaky/tradsys-core/pkg/types"
)

// Quote is a desired resting price/qty for one side of the book.
type Quote struct {
	Price types.Price
	Qty   types.Qty
}

// MarketMaker quotes both sides of a ticker, skewing size by inventory
// (spec.md §4.5). It decides *what* the book should look like; the
// caller is responsible for diffing against OrderTracker and issuing
// New/Cancel requests through the risk gate.
type MarketMaker struct {
	ticker      types.TickerId
	halfSpread  float64
	baseQty     float64
	maxPosition float64
	tolerance   types.Price
}

// NewMarketMaker configures a market maker for one ticker. tolerance is
// the largest price difference (in cents) between a working quote and
// the desired one that does not by itself trigger a requote.
func NewMarketMaker(ticker types.TickerId, halfSpread, baseQty, maxPosition float64, tolerance types.Price) *MarketMaker {
	return &MarketMaker{ticker: ticker, halfSpread: halfSpread, baseQty: baseQty, maxPosition: maxPosition, tolerance: tolerance}
}

// DesiredQuotes computes the bid/ask this strategy wants resting, given
// the latest features and current signed position.
func (m *MarketMaker) DesiredQuotes(f types.TickerFeatures, position int64) (bid, ask Quote) {
	halfSpreadEff := m.halfSpread + math.Abs(f.Imbalance)*m.halfSpread*0.5

	bidPrice := f.FairValue - halfSpreadEff
	askPrice := f.FairValue + halfSpreadEff

	r := clamp(float64(position)/m.maxPosition, -1, 1)
	skew := 1.0 // skew sensitivity, fixed (not configurable); 1.0 applies the full r

	bidQty := m.baseQty * math.Max(0, 1-skew*r)
	askMultiplier := 1.0
	if r < 0 {
		askMultiplier = 1 + skew*r
	}
	askQty := m.baseQty * math.Max(0, askMultiplier)

	return Quote{Price: types.Price(math.Round(bidPrice)), Qty: types.Qty(bidQty)},
		Quote{Price: types.Price(math.Round(askPrice)), Qty: types.Qty(askQty)}
}

// NeedsRequote reports whether current's price differs from desired by
// more than the configured tolerance, its qty differs at all, or the
// desired qty is zero while an order is working. With no current order
// it reports whether desired has a non-zero qty.
func (m *MarketMaker) NeedsRequote(current *WorkingOrder, desired Quote) bool {
	if current == nil {
		return desired.Qty > 0
	}
	if desired.Qty == 0 {
		return true
	}
	diff := current.Price - desired.Price
	if diff < 0 {
		diff = -diff
	}
	return diff > m.tolerance || current.Qty != desired.Qty
}

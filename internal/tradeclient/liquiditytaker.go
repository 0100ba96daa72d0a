package tradeclient

import "github.com/abdoElHodaky/tradsys-core/pkg/types"

// LiquidityTaker sends one aggressive order whenever the trade signal
// crosses a threshold and the ticker has no working order (spec.md
// §4.5).
type LiquidityTaker struct {
	ticker    types.TickerId
	baseQty   types.Qty
	threshold float64
}

// NewLiquidityTaker configures a liquidity taker for one ticker.
func NewLiquidityTaker(ticker types.TickerId, baseQty types.Qty, threshold float64) *LiquidityTaker {
	return &LiquidityTaker{ticker: ticker, baseQty: baseQty, threshold: threshold}
}

// Decide returns the aggressive order to send (if any) given the
// latest features, the book's current BBO, and whether a working order
// already exists on this ticker.
func (t *LiquidityTaker) Decide(f types.TickerFeatures, bbo types.BBO, hasWorkingOrder bool) (req types.ClientRequest, ok bool) {
	if hasWorkingOrder || !f.Valid {
		return types.ClientRequest{}, false
	}
	if absf(f.TradeSignal) < t.threshold {
		return types.ClientRequest{}, false
	}
	if f.TradeSignal > 0 {
		if !bbo.HasAsk() {
			return types.ClientRequest{}, false
		}
		return types.ClientRequest{Type: types.ReqNew, Ticker: t.ticker, Side: types.Buy, Price: bbo.AskPrice, Qty: t.baseQty}, true
	}
	if !bbo.HasBid() {
		return types.ClientRequest{}, false
	}
	return types.ClientRequest{Type: types.ReqNew, Ticker: t.ticker, Side: types.Sell, Price: bbo.BidPrice, Qty: t.baseQty}, true
}

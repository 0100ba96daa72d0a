package tradeclient

import "github.com/abdoElHodaky/tradsys-core/pkg/types"

// WorkingOrder is one order the client currently has resting at the
// exchange, tracked locally so the risk gate and strategies can reason
// about open-order count and per-ticker working quotes without a
// round-trip query.
type WorkingOrder struct {
	OrderId types.OrderId
	Ticker  types.TickerId
	Side    types.Side
	Price   types.Price
	Qty     types.Qty
}

// OrderTracker is the client-local view of resting orders across all
// tickers. Not safe for concurrent use.
type OrderTracker struct {
	byId map[types.OrderId]WorkingOrder
}

// NewOrderTracker creates an empty tracker.
func NewOrderTracker() *OrderTracker {
	return &OrderTracker{byId: make(map[types.OrderId]WorkingOrder)}
}

// Add records a newly accepted working order.
func (t *OrderTracker) Add(o WorkingOrder) { t.byId[o.OrderId] = o }

// Remove drops an order that has been fully filled, cancelled, or
// rejected. Returns the removed order and whether it was present.
func (t *OrderTracker) Remove(id types.OrderId) (WorkingOrder, bool) {
	o, ok := t.byId[id]
	if ok {
		delete(t.byId, id)
	}
	return o, ok
}

// Count returns the number of resting orders across all tickers.
func (t *OrderTracker) Count() int { return len(t.byId) }

// ForTicker returns the working orders on one ticker, at most one per
// side in the strategies this client runs.
func (t *OrderTracker) ForTicker(ticker types.TickerId) []WorkingOrder {
	var out []WorkingOrder
	for _, o := range t.byId {
		if o.Ticker == ticker {
			out = append(out, o)
		}
	}
	return out
}

package tradeclient

import "github.com/abdoElHodaky/tradsys-core/pkg/types"

// localBookEntry is the client's last known state for one resting
// order it has seen on the market-data feed, kept so MDModify/MDCancel
// deltas can be applied to the aggregate level map without requiring
// the exchange to publish level totals directly.
type localBookEntry struct {
	side  types.Side
	price types.Price
	qty   types.Qty
}

// LocalBook is the trade client's incrementally-built mirror of one
// ticker's top-of-book, built purely from the MarketUpdate stream. It
// never sees book residents beyond what crosses the wire.
type LocalBook struct {
	entries map[types.OrderId]localBookEntry
	bidQty  map[types.Price]types.Qty
	askQty  map[types.Price]types.Qty
}

// NewLocalBook creates an empty mirror.
func NewLocalBook() *LocalBook {
	return &LocalBook{
		entries: make(map[types.OrderId]localBookEntry),
		bidQty:  make(map[types.Price]types.Qty),
		askQty:  make(map[types.Price]types.Qty),
	}
}

// Apply folds one MarketUpdate into the mirror and returns the
// resulting BBO. Trade updates carry no level-delta of their own in
// this protocol — the accompanying Modify/Cancel touch already reflects
// the resting side's new size, so Apply treats MDTrade as a no-op.
func (b *LocalBook) Apply(u types.MarketUpdate) types.BBO {
	switch u.Type {
	case types.MDAdd:
		b.entries[u.OrderId] = localBookEntry{side: u.Side, price: u.Price, qty: u.Qty}
		b.levelQty(u.Side)[u.Price] += u.Qty
	case types.MDModify:
		if e, ok := b.entries[u.OrderId]; ok {
			levels := b.levelQty(e.side)
			levels[e.price] = subQty(levels[e.price], e.qty) + u.Qty
			e.qty = u.Qty
			b.entries[u.OrderId] = e
		}
	case types.MDCancel:
		if e, ok := b.entries[u.OrderId]; ok {
			levels := b.levelQty(e.side)
			levels[e.price] = subQty(levels[e.price], e.qty)
			if levels[e.price] == 0 {
				delete(levels, e.price)
			}
			delete(b.entries, u.OrderId)
		}
	case types.MDClear:
		b.entries = make(map[types.OrderId]localBookEntry)
		b.bidQty = make(map[types.Price]types.Qty)
		b.askQty = make(map[types.Price]types.Qty)
	}
	return b.BBO()
}

func (b *LocalBook) levelQty(side types.Side) map[types.Price]types.Qty {
	if side == types.Buy {
		return b.bidQty
	}
	return b.askQty
}

// BBO scans the current level maps for best bid / best ask. Not on any
// hot matching path — this runs once per market-data tick on the
// trade-client side, where a map scan is an acceptable cost.
func (b *LocalBook) BBO() types.BBO {
	bbo := types.BBO{BidPrice: types.NoPrice, AskPrice: types.NoPrice}
	for price, qty := range b.bidQty {
		if qty == 0 {
			continue
		}
		if bbo.BidPrice == types.NoPrice || price > bbo.BidPrice {
			bbo.BidPrice, bbo.BidQty = price, qty
		}
	}
	for price, qty := range b.askQty {
		if qty == 0 {
			continue
		}
		if bbo.AskPrice == types.NoPrice || price < bbo.AskPrice {
			bbo.AskPrice, bbo.AskQty = price, qty
		}
	}
	return bbo
}

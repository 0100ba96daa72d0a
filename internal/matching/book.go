// Package matching implements the per-instrument order book and the
// price-time-priority matching algorithm (spec.md §4.3). The algorithm is
// the classic "walk the opposite side from best price outward" design
// used by production matching engines; orders are linked within a price
// level by pool index, never by pointer, so the book can be serialized
// and debugged without chasing owning references.
package matching

import (
	"sort"

	"github.com/abdoElHodaky/tradsys-core/pkg/pool"
	"github.com/abdoElHodaky/tradsys-core/pkg/types"
)

const none int32 = -1

// orderKey identifies a client-originated order: OrderId alone is only
// unique within one client's session, so lookups key on the pair.
type orderKey struct {
	ClientId types.ClientId
	OrderId  types.OrderId
}

// Book is one instrument's resting order book. It owns a pool of Order
// slots and two sides of price levels, each a FIFO chain linked by pool
// index. It is not safe for concurrent use — the matching engine owns
// exactly one goroutine per book's process lifetime.
type Book struct {
	Ticker types.TickerId

	orders  *pool.Pool[types.Order]
	handles map[int32]pool.Handle

	bidLevels map[types.Price]*types.PriceLevel
	askLevels map[types.Price]*types.PriceLevel
	bidPrices []types.Price // sorted descending: bidPrices[0] is the best bid
	askPrices []types.Price // sorted ascending: askPrices[0] is the best ask

	byClientOrder map[orderKey]int32
	byMarketOrder map[types.OrderId]int32

	nextPriority      uint64
	nextMarketOrderId uint64
}

// NewBook creates an empty book backed by a pool of the given capacity —
// the maximum number of orders resting simultaneously on this ticker.
func NewBook(ticker types.TickerId, capacity int) *Book {
	return &Book{
		Ticker:        ticker,
		orders:        pool.New[types.Order](capacity),
		handles:       make(map[int32]pool.Handle, capacity),
		bidLevels:     make(map[types.Price]*types.PriceLevel),
		askLevels:     make(map[types.Price]*types.PriceLevel),
		byClientOrder: make(map[orderKey]int32, capacity),
		byMarketOrder: make(map[types.OrderId]int32, capacity),
	}
}

// Capacity and OrderCount expose pool occupancy for metrics and tests.
func (b *Book) Capacity() int   { return b.orders.Cap() }
func (b *Book) OrderCount() int { return b.orders.Live() }

func (b *Book) levelsFor(side types.Side) map[types.Price]*types.PriceLevel {
	if side == types.Buy {
		return b.bidLevels
	}
	return b.askLevels
}

func (b *Book) pricesFor(side types.Side) *[]types.Price {
	if side == types.Buy {
		return &b.bidPrices
	}
	return &b.askPrices
}

// bestLevel returns the best (highest bid / lowest ask) level on side, if
// one exists.
func (b *Book) bestLevel(side types.Side) (*types.PriceLevel, bool) {
	prices := *b.pricesFor(side)
	if len(prices) == 0 {
		return nil, false
	}
	return b.levelsFor(side)[prices[0]], true
}

// BBO returns the current top-of-book snapshot.
func (b *Book) BBO() types.BBO {
	bbo := types.BBO{BidPrice: types.NoPrice, AskPrice: types.NoPrice}
	if lvl, ok := b.bestLevel(types.Buy); ok {
		bbo.BidPrice, bbo.BidQty = lvl.Price, lvl.AggregateQty
	}
	if lvl, ok := b.bestLevel(types.Sell); ok {
		bbo.AskPrice, bbo.AskQty = lvl.Price, lvl.AggregateQty
	}
	return bbo
}

// Levels returns up to n price levels on side, best first, as value
// copies safe to hand to a reader that never touches book state
// directly (the admin HTTP snapshot handler).
func (b *Book) Levels(side types.Side, n int) []types.PriceLevel {
	prices := *b.pricesFor(side)
	if n > len(prices) {
		n = len(prices)
	}
	out := make([]types.PriceLevel, n)
	levels := b.levelsFor(side)
	for i := 0; i < n; i++ {
		out[i] = *levels[prices[i]]
	}
	return out
}

// insertLevelPrice inserts price into the side's sorted price slice,
// keeping bids descending and asks ascending, if not already present.
func insertLevelPrice(prices *[]types.Price, side types.Side, price types.Price) {
	less := func(i int) bool {
		if side == types.Buy {
			return (*prices)[i] <= price // first index whose price is <= price
		}
		return (*prices)[i] >= price
	}
	i := sort.Search(len(*prices), less)
	if i < len(*prices) && (*prices)[i] == price {
		return
	}
	*prices = append(*prices, types.NoPrice)
	copy((*prices)[i+1:], (*prices)[i:])
	(*prices)[i] = price
}

func removeLevelPrice(prices *[]types.Price, price types.Price) {
	for i, p := range *prices {
		if p == price {
			*prices = append((*prices)[:i], (*prices)[i+1:]...)
			return
		}
	}
}

// levelFor returns the level at price on side, creating it if absent.
func (b *Book) levelFor(side types.Side, price types.Price) *types.PriceLevel {
	levels := b.levelsFor(side)
	if lvl, ok := levels[price]; ok {
		return lvl
	}
	lvl := &types.PriceLevel{Price: price, HeadIdx: none, TailIdx: none}
	levels[price] = lvl
	insertLevelPrice(b.pricesFor(side), side, price)
	return lvl
}

// dropLevel removes an emptied level from the book.
func (b *Book) dropLevel(side types.Side, price types.Price) {
	delete(b.levelsFor(side), price)
	removeLevelPrice(b.pricesFor(side), price)
}

// insertResting appends a new resident order to the tail of its level,
// minting a market order id and a fresh priority. ok is false if the
// book's order pool is exhausted, in which case no state is mutated.
func (b *Book) insertResting(req types.ClientRequest, qty types.Qty) (order types.Order, ok bool) {
	h, slot, allocated := b.orders.Allocate()
	if !allocated {
		return types.Order{}, false
	}
	b.nextMarketOrderId++
	b.nextPriority++

	*slot = types.Order{
		OrderId:       req.OrderId,
		MarketOrderId: types.OrderId(b.nextMarketOrderId),
		ClientId:      req.ClientId,
		Ticker:        req.Ticker,
		Side:          req.Side,
		Price:         req.Price,
		Qty:           qty,
		Priority:      types.Priority(b.nextPriority),
		PrevIdx:       none,
		NextIdx:       none,
	}
	b.handles[h.Index] = h

	lvl := b.levelFor(req.Side, req.Price)
	if lvl.TailIdx == none {
		lvl.HeadIdx, lvl.TailIdx = h.Index, h.Index
	} else {
		tail := b.orders.GetByIndex(lvl.TailIdx)
		tail.NextIdx = h.Index
		slot.PrevIdx = lvl.TailIdx
		lvl.TailIdx = h.Index
	}
	lvl.AggregateQty += qty

	b.byClientOrder[orderKey{req.ClientId, req.OrderId}] = h.Index
	b.byMarketOrder[slot.MarketOrderId] = h.Index
	return *slot, true
}

// unlinkAndFree removes the order at idx from lvl's chain and releases
// its pool slot. Caller must update lvl.HeadIdx/TailIdx bookkeeping for
// the boundary it crosses; unlinkAndFree only repairs the neighbors.
func (b *Book) unlinkAndFree(lvl *types.PriceLevel, idx int32) {
	ord := b.orders.GetByIndex(idx)
	if ord.PrevIdx != none {
		b.orders.GetByIndex(ord.PrevIdx).NextIdx = ord.NextIdx
	}
	if ord.NextIdx != none {
		b.orders.GetByIndex(ord.NextIdx).PrevIdx = ord.PrevIdx
	}
	if lvl.HeadIdx == idx {
		lvl.HeadIdx = ord.NextIdx
	}
	if lvl.TailIdx == idx {
		lvl.TailIdx = ord.PrevIdx
	}
	delete(b.byClientOrder, orderKey{ord.ClientId, ord.OrderId})
	delete(b.byMarketOrder, ord.MarketOrderId)

	h, ok := b.handles[idx]
	if ok {
		b.orders.FreeHandle(h)
		delete(b.handles, idx)
	}
}

// cancelOrder removes a resident order entirely, dropping its level if it
// was the last one. Returns the removed order and true, or false if the
// order was not found.
func (b *Book) cancelOrder(clientId types.ClientId, orderId types.OrderId) (types.Order, bool) {
	idx, ok := b.byClientOrder[orderKey{clientId, orderId}]
	if !ok {
		return types.Order{}, false
	}
	ord := *b.orders.GetByIndex(idx)
	lvl := b.levelsFor(ord.Side)[ord.Price]
	lvl.AggregateQty -= ord.Qty
	b.unlinkAndFree(lvl, idx)
	if lvl.HeadIdx == none {
		b.dropLevel(ord.Side, ord.Price)
	}
	return ord, true
}

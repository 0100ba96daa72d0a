package matching

import (
	"github.com/abdoElHodaky/tradsys-core/pkg/types"
	"github.com/abdoElHodaky/tradsys-core/pkg/xerrors"
)

// Engine owns one Book per ticker and runs single-threaded: Process is
// called from exactly one goroutine, the matching loop (spec.md §4.4),
// which dequeues one request at a time and runs it to completion before
// looking at the next. That serialization is the system's only ordering
// guarantee across requests.
type Engine struct {
	books map[types.TickerId]*Book
}

// NewEngine creates an engine with one book per entry in capacities,
// keyed by ticker, sized to that ticker's maximum resident order count.
func NewEngine(capacities map[types.TickerId]int) *Engine {
	e := &Engine{books: make(map[types.TickerId]*Book, len(capacities))}
	for ticker, capacity := range capacities {
		e.books[ticker] = NewBook(ticker, capacity)
	}
	return e
}

// Book returns the book for ticker, or nil if the ticker is unknown.
func (e *Engine) Book(ticker types.TickerId) *Book { return e.books[ticker] }

// fillLeg is one side's half of a single match.
type fillLeg struct {
	clientId      types.ClientId
	ticker        types.TickerId
	clientOrderId types.OrderId
	marketOrderId types.OrderId
	side          types.Side
	price         types.Price
	qty           types.Qty
	leaves        types.Qty
}

// levelTouch records what happened to one resting order during a walk,
// so the level-change updates can be emitted after all fills, per
// spec.md §4.3's "fills-then-level-changes" ordering.
type levelTouch struct {
	ticker        types.TickerId
	marketOrderId types.OrderId
	side          types.Side
	price         types.Price
	leaves        types.Qty
	removed       bool
}

// Process applies one ClientRequest to the appropriate book and returns
// the responses and market updates it produced, in emission order. It
// never returns an error for a malformed-but-well-typed request — those
// surface as a Rejected/CancelRejected response, per spec.md §7.
func (e *Engine) Process(req types.ClientRequest) ([]types.ClientResponse, []types.MarketUpdate, error) {
	book, ok := e.books[req.Ticker]
	if !ok {
		return []types.ClientResponse{rejectResponse(req, types.RejectUnknownTicker)}, nil, nil
	}

	switch req.Type {
	case types.ReqNew:
		return e.processNew(book, req)
	case types.ReqCancel:
		return e.processCancel(book, req)
	case types.ReqModify:
		return e.processModify(book, req)
	default:
		return nil, nil, xerrors.Newf(xerrors.CodeWireProtocol, "unknown client request type %d", req.Type)
	}
}

func rejectResponse(req types.ClientRequest, reason types.RejectReason) types.ClientResponse {
	return types.ClientResponse{
		Type:     types.RespRejected,
		ClientId: req.ClientId,
		Ticker:   req.Ticker,
		ClientOrderId: req.OrderId,
		Side:     req.Side,
		Price:    req.Price,
		Reason:   reason,
	}
}

func cancelRejectResponse(req types.ClientRequest, reason types.RejectReason) types.ClientResponse {
	return types.ClientResponse{
		Type:          types.RespCancelRejected,
		ClientId:      req.ClientId,
		Ticker:        req.Ticker,
		ClientOrderId: req.OrderId,
		Side:          req.Side,
		Reason:        reason,
	}
}

func crosses(side types.Side, incomingPrice, levelPrice types.Price) bool {
	if side == types.Buy {
		return incomingPrice >= levelPrice
	}
	return incomingPrice <= levelPrice
}

func minQty(a, b types.Qty) types.Qty {
	if a < b {
		return a
	}
	return b
}

// walk matches an incoming order of the given side/price against the
// opposite side of the book, consuming residual down to zero or until
// no more crossing liquidity remains. It returns the fills produced, the
// per-resting-order level touches (in occurrence order), and the
// quantity left over to rest, if any.
func (b *Book) walk(side types.Side, price types.Price, qty types.Qty, clientId types.ClientId, clientOrderId types.OrderId) (fills []fillLeg, touches []levelTouch, residual types.Qty) {
	opposite := side.Opposite()
	residual = qty

	for residual > 0 {
		lvl, ok := b.bestLevel(opposite)
		if !ok || !crosses(side, price, lvl.Price) {
			break
		}

		idx := lvl.HeadIdx
		for idx != none && residual > 0 {
			resting := b.orders.GetByIndex(idx)
			tradeQty := minQty(residual, resting.Qty)
			tradePrice := resting.Price

			residual -= tradeQty
			resting.Qty -= tradeQty
			lvl.AggregateQty -= tradeQty

			fills = append(fills,
				fillLeg{clientId: clientId, ticker: b.Ticker, clientOrderId: clientOrderId, marketOrderId: 0, side: side, price: tradePrice, qty: tradeQty, leaves: residual},
				fillLeg{clientId: resting.ClientId, ticker: b.Ticker, clientOrderId: resting.OrderId, marketOrderId: resting.MarketOrderId, side: resting.Side, price: tradePrice, qty: tradeQty, leaves: resting.Qty},
			)

			next := resting.NextIdx
			if resting.Qty == 0 {
				b.unlinkAndFree(lvl, idx)
				touches = append(touches, levelTouch{ticker: b.Ticker, marketOrderId: resting.MarketOrderId, side: resting.Side, price: tradePrice, removed: true})
				idx = next
			} else {
				touches = append(touches, levelTouch{ticker: b.Ticker, marketOrderId: resting.MarketOrderId, side: resting.Side, price: tradePrice, leaves: resting.Qty})
			}
		}

		if lvl.HeadIdx == none {
			b.dropLevel(opposite, lvl.Price)
		}
	}
	return fills, touches, residual
}

func (e *Engine) processNew(book *Book, req types.ClientRequest) ([]types.ClientResponse, []types.MarketUpdate, error) {
	fills, touches, residual := book.walk(req.Side, req.Price, req.Qty, req.ClientId, req.OrderId)

	var responses []types.ClientResponse
	var updates []types.MarketUpdate
	var aggExec types.Qty

	// Each element of fills is one trade, represented as an (aggressor
	// leg, resting leg) pair in that order. Emit the Trade market update
	// and both Filled responses for each trade before moving to the next
	// — this is the request's "fills" phase, ahead of level changes.
	for i := 0; i+1 < len(fills); i += 2 {
		aggLeg, restLeg := fills[i], fills[i+1]
		aggExec += aggLeg.qty

		updates = append(updates, types.MarketUpdate{
			Type:    types.MDTrade,
			Ticker:  aggLeg.ticker,
			OrderId: firstNonZero(restLeg.marketOrderId, aggLeg.clientOrderId),
			Side:    aggLeg.side,
			Price:   aggLeg.price,
			Qty:     aggLeg.qty,
		})

		responses = append(responses,
			types.ClientResponse{
				Type:          types.RespFilled,
				ClientId:      aggLeg.clientId,
				Ticker:        aggLeg.ticker,
				ClientOrderId: aggLeg.clientOrderId,
				MarketOrderId: restLeg.marketOrderId,
				Side:          aggLeg.side,
				Price:         aggLeg.price,
				ExecQty:       aggLeg.qty,
				LeavesQty:     aggLeg.leaves,
			},
			types.ClientResponse{
				Type:          types.RespFilled,
				ClientId:      restLeg.clientId,
				Ticker:        restLeg.ticker,
				ClientOrderId: restLeg.clientOrderId,
				MarketOrderId: restLeg.marketOrderId,
				Side:          restLeg.side,
				Price:         restLeg.price,
				ExecQty:       restLeg.qty,
				LeavesQty:     restLeg.leaves,
			},
		)
	}

	for _, t := range touches {
		kind := types.MDModify
		if t.removed {
			kind = types.MDCancel
		}
		updates = append(updates, types.MarketUpdate{
			Type:    kind,
			Ticker:  t.ticker,
			OrderId: t.marketOrderId,
			Side:    t.side,
			Price:   t.price,
			Qty:     t.leaves,
		})
	}

	if residual > 0 {
		resting, ok := book.insertResting(req, residual)
		if !ok {
			responses = append(responses, rejectResponse(req, types.RejectBackpressure))
			return responses, updates, nil
		}
		if aggExec == 0 {
			responses = append(responses, types.ClientResponse{
				Type:          types.RespAccepted,
				ClientId:      req.ClientId,
				Ticker:        req.Ticker,
				ClientOrderId: req.OrderId,
				MarketOrderId: resting.MarketOrderId,
				Side:          req.Side,
				Price:         req.Price,
				LeavesQty:     resting.Qty,
			})
		}
		updates = append(updates, types.MarketUpdate{
			Type:    types.MDAdd,
			Ticker:  req.Ticker,
			OrderId: resting.MarketOrderId,
			Side:    req.Side,
			Price:   req.Price,
			Qty:     resting.Qty,
			Priority: resting.Priority,
		})
	}

	return responses, updates, nil
}

func firstNonZero(a, b types.OrderId) types.OrderId {
	if a != 0 {
		return a
	}
	return b
}

func (e *Engine) processCancel(book *Book, req types.ClientRequest) ([]types.ClientResponse, []types.MarketUpdate, error) {
	ord, ok := book.cancelOrder(req.ClientId, req.OrderId)
	if !ok {
		return []types.ClientResponse{cancelRejectResponse(req, types.RejectUnknownOrder)}, nil, nil
	}
	resp := types.ClientResponse{
		Type:          types.RespCanceled,
		ClientId:      req.ClientId,
		Ticker:        req.Ticker,
		ClientOrderId: req.OrderId,
		MarketOrderId: ord.MarketOrderId,
		Side:          ord.Side,
		Price:         ord.Price,
	}
	update := types.MarketUpdate{
		Type:    types.MDCancel,
		Ticker:  req.Ticker,
		OrderId: ord.MarketOrderId,
		Side:    ord.Side,
		Price:   ord.Price,
	}
	return []types.ClientResponse{resp}, []types.MarketUpdate{update}, nil
}

// processModify implements the spec's mandated cancel-then-new semantics:
// the resident order is removed (losing queue position) and a fresh New
// is processed at the request's price/qty. Modify never preserves the
// original priority.
func (e *Engine) processModify(book *Book, req types.ClientRequest) ([]types.ClientResponse, []types.MarketUpdate, error) {
	ord, ok := book.cancelOrder(req.ClientId, req.OrderId)
	if !ok {
		return []types.ClientResponse{cancelRejectResponse(req, types.RejectUnknownOrder)}, nil, nil
	}

	cancelUpdate := types.MarketUpdate{
		Type:    types.MDCancel,
		Ticker:  req.Ticker,
		OrderId: ord.MarketOrderId,
		Side:    ord.Side,
		Price:   ord.Price,
	}

	newReq := req
	newReq.Type = types.ReqNew
	responses, updates, err := e.processNew(book, newReq)
	return responses, append([]types.MarketUpdate{cancelUpdate}, updates...), err
}

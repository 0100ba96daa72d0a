package tradeclient

import (
	"github.com/abdoElHodaky/tradsys-core/internal/logging"
	"github.com/abdoElHodaky/tradsys-core/internal/metrics"
	"github.com/abdoElHodaky/tradsys-core/pkg/types"
)

// Client owns one ticker's end-to-end client-side loop: the local book
// mirror and feature engine driven by market data, the position keeper
// and risk gate driven by both market data and the client's own order
// responses, and exactly one of the two strategies (spec.md §4.5 treats
// market-maker and liquidity-taker as mutually exclusive per session).
type Client struct {
	ticker types.TickerId

	conn       *OrderConn
	book       *LocalBook
	features   *FeatureEngine
	position   *PositionKeeper
	risk       *RiskGate
	tracker    *OrderTracker
	rejections *RejectionLog

	mm *MarketMaker
	lt *LiquidityTaker

	log     *logging.Producer
	metrics *metrics.Registry

	nextOrderId uint64
	limits      types.RiskLimits
}

// NewMarketMakerClient wires a Client running the market-maker
// strategy for ticker.
func NewMarketMakerClient(ticker types.TickerId, conn *OrderConn, alpha float64, limits types.RiskLimits, mm *MarketMaker, log *logging.Producer, reg *metrics.Registry) *Client {
	return newClient(ticker, conn, alpha, limits, mm, nil, log, reg)
}

// NewLiquidityTakerClient wires a Client running the liquidity-taker
// strategy for ticker.
func NewLiquidityTakerClient(ticker types.TickerId, conn *OrderConn, alpha float64, limits types.RiskLimits, lt *LiquidityTaker, log *logging.Producer, reg *metrics.Registry) *Client {
	return newClient(ticker, conn, alpha, limits, nil, lt, log, reg)
}

func newClient(ticker types.TickerId, conn *OrderConn, alpha float64, limits types.RiskLimits, mm *MarketMaker, lt *LiquidityTaker, log *logging.Producer, reg *metrics.Registry) *Client {
	return &Client{
		ticker:      ticker,
		conn:        conn,
		book:        NewLocalBook(),
		features:    NewFeatureEngine(ticker, alpha),
		position:    NewPositionKeeper(ticker),
		risk:        NewRiskGate(limits),
		tracker:     NewOrderTracker(),
		rejections:  NewRejectionLog(),
		mm:          mm,
		lt:          lt,
		log:         log,
		metrics:     reg,
		nextOrderId: 1,
		limits:      limits,
	}
}

// AdminState snapshots the state the admin HTTP surface serves.
func (c *Client) AdminState() AdminState {
	return AdminState{
		Position: c.position.Snapshot(),
		Features: c.features.Current(),
		Limits:   c.limits,
	}
}

// Rejections exposes the client's rejection log for NewAdminRouter.
func (c *Client) Rejections() *RejectionLog { return c.rejections }

// OnMarketUpdate folds one market-data event into the local book and,
// if it moved the BBO, recomputes features, refreshes unrealized P&L,
// and runs the active strategy.
func (c *Client) OnMarketUpdate(u types.MarketUpdate) {
	if u.Ticker != c.ticker {
		return
	}
	before := c.book.BBO()
	bbo := c.book.Apply(u)
	if bbo == before {
		return
	}
	f := c.features.OnBBO(bbo)
	if bbo.HasBid() && bbo.HasAsk() {
		c.position.OnBBO(float64(bbo.BidPrice+bbo.AskPrice) / 2)
	}
	c.runStrategy(f, bbo)
}

// OnResponse applies one ClientResponse to the position keeper and
// working-order tracker.
func (c *Client) OnResponse(resp types.ClientResponse) {
	switch resp.Type {
	case types.RespAccepted:
		c.tracker.Add(WorkingOrder{OrderId: resp.MarketOrderId, Ticker: c.ticker, Side: resp.Side, Price: resp.Price, Qty: resp.LeavesQty})
		c.position.OnAccept(resp.Side, resp.LeavesQty)
	case types.RespFilled:
		c.position.OnFill(resp.Side, resp.ExecQty, resp.Price)
		if resp.LeavesQty == 0 {
			c.tracker.Remove(resp.MarketOrderId)
		} else if o, ok := c.tracker.Remove(resp.MarketOrderId); ok {
			o.Qty = resp.LeavesQty
			c.tracker.Add(o)
		}
	case types.RespCanceled:
		if o, ok := c.tracker.Remove(resp.MarketOrderId); ok {
			c.position.OnCancelOrReject(o.Side, o.Qty)
		}
	case types.RespRejected, types.RespCancelRejected:
		c.rejections.Record(Rejection{Ticker: resp.Ticker, Side: resp.Side.String(), Qty: resp.LeavesQty, Reason: resp.Reason})
		if c.metrics != nil {
			c.metrics.Rejections.WithLabelValues(string(resp.Reason)).Inc()
		}
	}
}

func (c *Client) runStrategy(f types.TickerFeatures, bbo types.BBO) {
	if !f.Valid {
		return
	}
	switch {
	case c.mm != nil:
		c.runMarketMaker(f)
	case c.lt != nil:
		c.runLiquidityTaker(f, bbo)
	}
}

func (c *Client) runMarketMaker(f types.TickerFeatures) {
	pos := c.position.Snapshot()
	bid, ask := c.mm.DesiredQuotes(f, pos.Position)
	c.requote(types.Buy, bid)
	c.requote(types.Sell, ask)
}

func (c *Client) requote(side types.Side, desired Quote) {
	var current *WorkingOrder
	for _, o := range c.tracker.ForTicker(c.ticker) {
		if o.Side == side {
			working := o
			current = &working
			break
		}
	}
	if !c.mm.NeedsRequote(current, desired) {
		return
	}
	if current != nil {
		c.send(types.ClientRequest{Type: types.ReqCancel, Ticker: c.ticker, OrderId: current.OrderId})
	}
	if desired.Qty > 0 {
		c.send(types.ClientRequest{Type: types.ReqNew, Ticker: c.ticker, OrderId: c.allocOrderId(), Side: side, Price: desired.Price, Qty: desired.Qty})
	}
}

func (c *Client) runLiquidityTaker(f types.TickerFeatures, bbo types.BBO) {
	has := len(c.tracker.ForTicker(c.ticker)) > 0
	req, ok := c.lt.Decide(f, bbo, has)
	if !ok {
		return
	}
	req.OrderId = c.allocOrderId()
	c.send(req)
}

// send evaluates req through the risk gate (new orders only — cancels
// always pass through) and writes it to the exchange if it clears.
func (c *Client) send(req types.ClientRequest) {
	if req.Type == types.ReqNew {
		pos := c.position.Snapshot()
		ok, reason := c.risk.Evaluate(pos, req.Side, req.Qty, c.tracker.Count())
		if !ok {
			c.rejections.Record(Rejection{Ticker: req.Ticker, Side: req.Side.String(), Qty: req.Qty, Reason: reason})
			if c.metrics != nil {
				c.metrics.Rejections.WithLabelValues(string(reason)).Inc()
			}
			if c.log != nil {
				c.log.WarnInt("tradeclient: risk gate rejected order", "reason_len", int64(len(reason)))
			}
			return
		}
	}
	if err := c.conn.SendRequest(req); err != nil && c.log != nil {
		c.log.Formatted(logging.LevelError, "tradeclient: send request failed: "+err.Error())
	}
}

func (c *Client) allocOrderId() types.OrderId {
	id := c.nextOrderId
	c.nextOrderId++
	return types.OrderId(id)
}

// Package types holds the wire-level and book-level data model shared by
// the exchange and the trading client: identifiers, the resident order
// shape, book snapshots, and the client-side accounting types.
package types

// TickerId tags an instrument. ClientId tags a session owner.
type TickerId uint32
type ClientId uint32

// OrderId is unique per (client, session) for client-originated orders;
// the exchange mints its own id for book residents (see Order.MarketOrderId).
type OrderId uint64

// Price is signed, in cents. Qty is unsigned.
type Price int64
type Qty uint32

// Priority is a strictly-monotonic counter assigned at book insertion;
// lower values are more senior.
type Priority uint64

type Side int8

const (
	Buy  Side = 1
	Sell Side = -1
)

func (s Side) String() string {
	if s == Buy {
		return "BUY"
	}
	return "SELL"
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	return -s
}

// NoPrice is the BBO sentinel for "no side".
const NoPrice Price = -1 << 62

// Order is a resident book entry. It links within its price level by pool
// index, never by pointer — prev/next are indices into the engine's order
// pool, or -1 (the `none` sentinel of pkg/pool and internal/matching) at
// the ends of the list.
type Order struct {
	OrderId       OrderId
	MarketOrderId OrderId
	ClientId      ClientId
	Ticker        TickerId
	Side          Side
	Price         Price
	Qty           Qty
	Priority      Priority
	PrevIdx       int32
	NextIdx       int32
}

// PriceLevel aggregates all orders at one price on one side, linked in
// time priority. HeadIdx is the most-senior order (lowest Priority).
type PriceLevel struct {
	Price        Price
	HeadIdx      int32
	TailIdx      int32
	AggregateQty Qty
}

// BBO is a top-of-book snapshot. A side with no resting interest reports
// types.NoPrice / zero qty.
type BBO struct {
	BidPrice Price
	BidQty   Qty
	AskPrice Price
	AskQty   Qty
}

// HasBid / HasAsk report whether a side carries resting interest.
func (b BBO) HasBid() bool { return b.BidPrice != NoPrice }
func (b BBO) HasAsk() bool { return b.AskPrice != NoPrice }

// Mid returns (bid+ask)/2, valid only when both sides are populated.
func (b BBO) Mid() Price {
	return (b.BidPrice + b.AskPrice) / 2
}

// TickerFeatures is the client's derived view of a ticker, refreshed on
// every BBO change.
type TickerFeatures struct {
	Ticker      TickerId
	FairValue   float64
	Spread      Price
	MidPrice    Price
	Imbalance   float64 // [-1, 1]
	TradeSignal float64 // [-1, 1]
	Valid       bool    // false until the first BBO has been observed
}

// Position is the client's per-ticker inventory and P&L state for the
// trading session. OpenBuyQty/OpenSellQty count only working (resting,
// unfilled) orders.
type Position struct {
	Ticker         TickerId
	Position       int64 // signed: +long, -short
	OpenBuyQty     Qty
	OpenSellQty    Qty
	VWAPOpenPrice  float64
	RealizedPnL    float64
	UnrealizedPnL  float64
}

// RiskLimits is immutable for the session.
type RiskLimits struct {
	MaxOrderQty   Qty
	MaxPosition   int64
	MaxLoss       float64
	MaxOpenOrders int
}

// ClientRequestType and ClientResponseType tag the wire messages (see
// pkg/wire for the packed encodings).
type ClientRequestType uint8

const (
	ReqNew ClientRequestType = iota + 1
	ReqCancel
	ReqModify
)

type ClientResponseType uint8

const (
	RespAccepted ClientResponseType = iota + 1
	RespCanceled
	RespFilled
	RespRejected
	RespCancelRejected
)

// RejectReason tags why a Rejected/CancelRejected response was produced.
// It travels only in-process (logs, metrics, admin surface); the wire
// ClientResponse carries just the response type.
type RejectReason string

const (
	RejectUnknownTicker     RejectReason = "UNKNOWN_TICKER"
	RejectUnknownOrder      RejectReason = "UNKNOWN_ORDER"
	RejectBackpressure      RejectReason = "BACKPRESSURE"
	RejectOrderTooLarge     RejectReason = "ORDER_TOO_LARGE"
	RejectPositionTooLarge  RejectReason = "POSITION_TOO_LARGE"
	RejectLossTooLarge      RejectReason = "LOSS_TOO_LARGE"
	RejectOpenOrdersTooMany RejectReason = "OPEN_ORDERS_TOO_MANY"
)

// MarketUpdateType tags a market-data event.
type MarketUpdateType uint8

const (
	MDAdd MarketUpdateType = iota + 1
	MDModify
	MDCancel
	MDTrade
	MDClear
)

// ClientRequest is the decoded form of a wire request (see pkg/wire).
type ClientRequest struct {
	Type     ClientRequestType
	ClientId ClientId
	Ticker   TickerId
	OrderId  OrderId
	Side     Side
	Price    Price
	Qty      Qty
}

// ClientResponse is the decoded form of a wire response.
type ClientResponse struct {
	Type          ClientResponseType
	ClientId      ClientId
	Ticker        TickerId
	ClientOrderId OrderId
	MarketOrderId OrderId
	Side          Side
	Price         Price
	ExecQty       Qty
	LeavesQty     Qty
	Reason        RejectReason
}

// MarketUpdate is the decoded form of a market-data packet.
type MarketUpdate struct {
	SeqNum   uint64
	Type     MarketUpdateType
	Ticker   TickerId
	OrderId  OrderId
	Side     Side
	Price    Price
	Qty      Qty
	Priority Priority
}

package tradeclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abdoElHodaky/tradsys-core/pkg/types"
)

const readTimeout = 30 * time.Second

// marketUpdateFrame mirrors the JSON shape internal/gateway.Publisher
// broadcasts. It is decoded independently rather than imported from
// gateway, which is the exchange-process package.
type marketUpdateFrame struct {
	SeqNum   uint64         `json:"seq_num"`
	Type     string         `json:"type"`
	Ticker   types.TickerId `json:"ticker"`
	OrderId  types.OrderId  `json:"order_id"`
	Side     string         `json:"side"`
	Price    types.Price    `json:"price"`
	Qty      types.Qty      `json:"qty"`
	Priority types.Priority `json:"priority"`
}

// MarketFeed subscribes to the exchange's websocket market-data feed
// and delivers decoded updates to a handler, reconnecting is the
// caller's responsibility (Run returns on any read error).
type MarketFeed struct {
	url      string
	lastSeq  uint64
	gapsSeen uint64
}

// NewMarketFeed targets the exchange's market-data websocket endpoint.
func NewMarketFeed(url string) *MarketFeed {
	return &MarketFeed{url: url}
}

// GapsSeen reports how many non-consecutive seq_num jumps this feed has
// observed since construction (spec.md §4.10's gap-detectable contract —
// detection only; resync happens out of band).
func (f *MarketFeed) GapsSeen() uint64 { return f.gapsSeen }

// Run dials the feed and delivers updates to handler until ctx is
// cancelled or the connection drops.
func (f *MarketFeed) Run(ctx context.Context, handler func(types.MarketUpdate)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return fmt.Errorf("tradeclient: dial market feed: %w", err)
	}
	defer conn.Close()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("tradeclient: read market feed: %w", err)
		}
		var frame marketUpdateFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			continue // malformed frame: skip rather than kill the feed
		}
		if f.lastSeq != 0 && frame.SeqNum != f.lastSeq+1 {
			f.gapsSeen++
		}
		f.lastSeq = frame.SeqNum
		handler(toMarketUpdate(frame))
	}
}

func toMarketUpdate(frame marketUpdateFrame) types.MarketUpdate {
	return types.MarketUpdate{
		SeqNum:   frame.SeqNum,
		Type:     marketUpdateTypeFromLabel(frame.Type),
		Ticker:   frame.Ticker,
		OrderId:  frame.OrderId,
		Side:     sideFromLabel(frame.Side),
		Price:    frame.Price,
		Qty:      frame.Qty,
		Priority: frame.Priority,
	}
}

func marketUpdateTypeFromLabel(s string) types.MarketUpdateType {
	switch s {
	case "add":
		return types.MDAdd
	case "modify":
		return types.MDModify
	case "cancel":
		return types.MDCancel
	case "trade":
		return types.MDTrade
	case "clear":
		return types.MDClear
	default:
		return 0
	}
}

func sideFromLabel(s string) types.Side {
	if s == "buy" {
		return types.Buy
	}
	return types.Sell
}

// Package wire implements the fixed-width, little-endian packed
// encodings of the order and market-data wire formats (spec.md §6).
// Encoding is hand-rolled with encoding/binary rather than struct-tag
// reflection: every field has a contractual byte offset and the hot
// path must not pay for reflection or allocation per message.
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/abdoElHodaky/tradsys-core/pkg/types"
)

// Sizes, in bytes, of the fixed-width payload (excluding the prepended
// per-session seq_num that frames every record on the order wire).
const (
	// msg_type(1) client_id(4) ticker_id(4) order_id(8) side(1) price(8) qty(4)
	ClientRequestSize = 30

	// msg_type(1) client_id(4) ticker_id(4) client_order_id(8) market_order_id(8)
	// side(1) price(8) exec_qty(4) leaves_qty(4)
	ClientResponseSize = 42

	// seq_num(8) type(1) ticker_id(4) order_id(8) side(1) price(8) qty(4) priority(8)
	MarketUpdateSize = 42

	SeqNumSize = 8
)

// EncodeClientRequest writes the ClientRequestSize-byte packed payload
// for req into buf. It does not prepend a session seq_num — callers
// writing to the wire do that separately so seq_num assignment happens
// at the point of send, not of encode.
func EncodeClientRequest(buf []byte, req types.ClientRequest) {
	_ = buf[:ClientRequestSize]
	buf[0] = byte(req.Type)
	binary.LittleEndian.PutUint32(buf[1:5], uint32(req.ClientId))
	binary.LittleEndian.PutUint32(buf[5:9], uint32(req.Ticker))
	binary.LittleEndian.PutUint64(buf[9:17], uint64(req.OrderId))
	buf[17] = byte(req.Side)
	binary.LittleEndian.PutUint64(buf[18:26], uint64(req.Price))
	binary.LittleEndian.PutUint32(buf[26:30], uint32(req.Qty))
}

// DecodeClientRequest parses a ClientRequestSize-byte packed payload.
func DecodeClientRequest(buf []byte) (types.ClientRequest, error) {
	if len(buf) < ClientRequestSize {
		return types.ClientRequest{}, fmt.Errorf("wire: client request short buffer: got %d want %d", len(buf), ClientRequestSize)
	}
	return types.ClientRequest{
		Type:     types.ClientRequestType(buf[0]),
		ClientId: types.ClientId(binary.LittleEndian.Uint32(buf[1:5])),
		Ticker:   types.TickerId(binary.LittleEndian.Uint32(buf[5:9])),
		OrderId:  types.OrderId(binary.LittleEndian.Uint64(buf[9:17])),
		Side:     types.Side(int8(buf[17])),
		Price:    types.Price(binary.LittleEndian.Uint64(buf[18:26])),
		Qty:      types.Qty(binary.LittleEndian.Uint32(buf[26:30])),
	}, nil
}

// EncodeClientResponse writes the ClientResponseSize-byte packed payload
// for resp into buf.
func EncodeClientResponse(buf []byte, resp types.ClientResponse) {
	_ = buf[:ClientResponseSize]
	buf[0] = byte(resp.Type)
	binary.LittleEndian.PutUint32(buf[1:5], uint32(resp.ClientId))
	binary.LittleEndian.PutUint32(buf[5:9], uint32(resp.Ticker))
	binary.LittleEndian.PutUint64(buf[9:17], uint64(resp.ClientOrderId))
	binary.LittleEndian.PutUint64(buf[17:25], uint64(resp.MarketOrderId))
	buf[25] = byte(resp.Side)
	binary.LittleEndian.PutUint64(buf[26:34], uint64(resp.Price))
	binary.LittleEndian.PutUint32(buf[34:38], uint32(resp.ExecQty))
	binary.LittleEndian.PutUint32(buf[38:42], uint32(resp.LeavesQty))
}

// DecodeClientResponse parses a ClientResponseSize-byte packed payload.
func DecodeClientResponse(buf []byte) (types.ClientResponse, error) {
	if len(buf) < ClientResponseSize {
		return types.ClientResponse{}, fmt.Errorf("wire: client response short buffer: got %d want %d", len(buf), ClientResponseSize)
	}
	return types.ClientResponse{
		Type:          types.ClientResponseType(buf[0]),
		ClientId:      types.ClientId(binary.LittleEndian.Uint32(buf[1:5])),
		Ticker:        types.TickerId(binary.LittleEndian.Uint32(buf[5:9])),
		ClientOrderId: types.OrderId(binary.LittleEndian.Uint64(buf[9:17])),
		MarketOrderId: types.OrderId(binary.LittleEndian.Uint64(buf[17:25])),
		Side:          types.Side(int8(buf[25])),
		Price:         types.Price(binary.LittleEndian.Uint64(buf[26:34])),
		ExecQty:       types.Qty(binary.LittleEndian.Uint32(buf[34:38])),
		LeavesQty:     types.Qty(binary.LittleEndian.Uint32(buf[38:42])),
	}, nil
}

// EncodeMarketUpdate writes the MarketUpdateSize-byte packed payload for
// u into buf.
func EncodeMarketUpdate(buf []byte, u types.MarketUpdate) {
	_ = buf[:MarketUpdateSize]
	binary.LittleEndian.PutUint64(buf[0:8], u.SeqNum)
	buf[8] = byte(u.Type)
	binary.LittleEndian.PutUint32(buf[9:13], uint32(u.Ticker))
	binary.LittleEndian.PutUint64(buf[13:21], uint64(u.OrderId))
	buf[21] = byte(u.Side)
	binary.LittleEndian.PutUint64(buf[22:30], uint64(u.Price))
	binary.LittleEndian.PutUint32(buf[30:34], uint32(u.Qty))
	binary.LittleEndian.PutUint64(buf[34:42], uint64(u.Priority))
}

// DecodeMarketUpdate parses a MarketUpdateSize-byte packed payload.
func DecodeMarketUpdate(buf []byte) (types.MarketUpdate, error) {
	if len(buf) < MarketUpdateSize {
		return types.MarketUpdate{}, fmt.Errorf("wire: market update short buffer: got %d want %d", len(buf), MarketUpdateSize)
	}
	return types.MarketUpdate{
		SeqNum:   binary.LittleEndian.Uint64(buf[0:8]),
		Type:     types.MarketUpdateType(buf[8]),
		Ticker:   types.TickerId(binary.LittleEndian.Uint32(buf[9:13])),
		OrderId:  types.OrderId(binary.LittleEndian.Uint64(buf[13:21])),
		Side:     types.Side(int8(buf[21])),
		Price:    types.Price(binary.LittleEndian.Uint64(buf[22:30])),
		Qty:      types.Qty(binary.LittleEndian.Uint32(buf[30:34])),
		Priority: types.Priority(binary.LittleEndian.Uint64(buf[34:42])),
	}, nil
}

package tradeclient

import (
	"bufio"
	"encoding/binary"
	"io"
	"net"

	"github.com/abdoElHodaky/tradsys-core/pkg/types"
	"github.com/abdoElHodaky/tradsys-core/pkg/wire"
)

// handshakeSize matches internal/gateway.Session: client_id:u32 then
// starting seq_num:u64.
const handshakeSize = 4 + 8

// OrderConn is the trade client's side of the exchange's TCP order
// socket: it performs the session handshake, frames outbound requests
// with a strictly increasing seq_num, and decodes inbound responses.
type OrderConn struct {
	conn     net.Conn
	reader   *bufio.Reader
	clientId types.ClientId
	nextOut  uint64
	nextIn   uint64
}

// Dial connects to addr and performs the handshake declaring clientId
// and a starting seq_num of 1 on both directions.
func Dial(addr string, clientId types.ClientId) (*OrderConn, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	c := &OrderConn{conn: conn, reader: bufio.NewReader(conn), clientId: clientId, nextOut: 1, nextIn: 1}
	var buf [handshakeSize]byte
	binary.LittleEndian.PutUint32(buf[:4], uint32(clientId))
	binary.LittleEndian.PutUint64(buf[4:12], c.nextOut)
	if _, err := conn.Write(buf[:]); err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

// SendRequest frames and writes one ClientRequest, advancing the
// outbound sequence counter.
func (c *OrderConn) SendRequest(req types.ClientRequest) error {
	req.ClientId = c.clientId
	var buf [wire.SeqNumSize + wire.ClientRequestSize]byte
	binary.LittleEndian.PutUint64(buf[:wire.SeqNumSize], c.nextOut)
	wire.EncodeClientRequest(buf[wire.SeqNumSize:], req)
	if _, err := c.conn.Write(buf[:]); err != nil {
		return err
	}
	c.nextOut++
	return nil
}

// ReadResponse blocks for the next framed ClientResponse.
func (c *OrderConn) ReadResponse() (types.ClientResponse, error) {
	var buf [wire.SeqNumSize + wire.ClientResponseSize]byte
	if _, err := io.ReadFull(c.reader, buf[:]); err != nil {
		return types.ClientResponse{}, err
	}
	c.nextIn++
	return wire.DecodeClientResponse(buf[wire.SeqNumSize:])
}

// Close tears down the connection.
func (c *OrderConn) Close() error { return c.conn.Close() }

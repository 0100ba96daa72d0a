package gateway

import (
	"encoding/binary"
	"io"
	"net"
	"testing"

	"github.com/abdoElHodaky/tradsys-core/pkg/types"
	"github.com/abdoElHodaky/tradsys-core/pkg/wire"
)

func testCircuitBreakerSettings() CircuitBreakerSettings {
	return CircuitBreakerSettings{MaxRequests: 5, IntervalSecs: 1, TimeoutSecs: 1, FailureRatio: 0.5}
}

func writeHandshake(t *testing.T, conn net.Conn, clientId uint32, startSeq uint64) {
	t.Helper()
	var buf [handshakeSize]byte
	binary.LittleEndian.PutUint32(buf[:4], clientId)
	binary.LittleEndian.PutUint64(buf[4:12], startSeq)
	if _, err := conn.Write(buf[:]); err != nil {
		t.Fatalf("write handshake: %v", err)
	}
}

func writeFramedRequest(t *testing.T, conn net.Conn, seq uint64, req types.ClientRequest) {
	t.Helper()
	var buf [wire.SeqNumSize + wire.ClientRequestSize]byte
	binary.LittleEndian.PutUint64(buf[:wire.SeqNumSize], seq)
	wire.EncodeClientRequest(buf[wire.SeqNumSize:], req)
	if _, err := conn.Write(buf[:]); err != nil {
		t.Fatalf("write request: %v", err)
	}
}

func TestSessionHandshakeSetsClientIdAndStartSeq(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	sess := NewSession(1, server, 8, 1000, 10, testCircuitBreakerSettings())

	done := make(chan error, 1)
	go func() { done <- sess.ReadHandshake() }()
	writeHandshake(t, client, 42, 7)
	if err := <-done; err != nil {
		t.Fatalf("ReadHandshake: %v", err)
	}
	if sess.ClientId != 42 {
		t.Fatalf("expected client id 42, got %d", sess.ClientId)
	}
	if sess.nextExpectedIn != 7 {
		t.Fatalf("expected next expected seq 7, got %d", sess.nextExpectedIn)
	}
}

func TestSessionReadRequestEnforcesFIFOSequencing(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	sess := NewSession(1, server, 8, 1000, 10, testCircuitBreakerSettings())
	sess.nextExpectedIn = 1

	req := types.ClientRequest{Type: types.ReqNew, ClientId: 1, Ticker: 1, OrderId: 1, Side: types.Buy, Price: 100, Qty: 10}

	readDone := make(chan struct{ r types.ClientRequest; err error }, 1)
	go func() {
		r, err := sess.ReadRequest()
		readDone <- struct {
			r   types.ClientRequest
			err error
		}{r, err}
	}()
	// Send with a gap: server expects seq 1, this sends seq 2.
	writeFramedRequest(t, client, 2, req)
	result := <-readDone
	if result.err == nil {
		t.Fatalf("expected sequence-gap error, got nil")
	}
}

func TestSessionReadRequestAcceptsInOrderSequence(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	sess := NewSession(1, server, 8, 1000, 10, testCircuitBreakerSettings())
	sess.nextExpectedIn = 1

	req := types.ClientRequest{Type: types.ReqNew, ClientId: 1, Ticker: 1, OrderId: 1, Side: types.Buy, Price: 100, Qty: 10}

	readDone := make(chan struct{ r types.ClientRequest; err error }, 1)
	go func() {
		r, err := sess.ReadRequest()
		readDone <- struct {
			r   types.ClientRequest
			err error
		}{r, err}
	}()
	writeFramedRequest(t, client, 1, req)
	result := <-readDone
	if result.err != nil {
		t.Fatalf("unexpected error: %v", result.err)
	}
	if result.r.OrderId != 1 || result.r.Price != 100 {
		t.Fatalf("decoded request mismatch: %+v", result.r)
	}
	if sess.nextExpectedIn != 2 {
		t.Fatalf("expected next expected seq to advance to 2, got %d", sess.nextExpectedIn)
	}
}

func TestSessionEnqueueAndWriteNextRoundTrips(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	sess := NewSession(1, server, 8, 1000, 10, testCircuitBreakerSettings())

	resp := types.ClientResponse{Type: types.RespAccepted, ClientId: 7, Ticker: 1, ClientOrderId: 3, MarketOrderId: 99, Side: types.Buy, Price: 100, ExecQty: 0, LeavesQty: 10}
	if !sess.EnqueueResponse(resp) {
		t.Fatalf("expected enqueue to succeed")
	}

	writeErr := make(chan error, 1)
	go func() {
		_, err := sess.WriteNext()
		writeErr <- err
	}()

	var buf [wire.SeqNumSize + wire.ClientResponseSize]byte
	if _, err := io.ReadFull(client, buf[:]); err != nil {
		t.Fatalf("read response frame: %v", err)
	}
	if err := <-writeErr; err != nil {
		t.Fatalf("WriteNext: %v", err)
	}
	decoded, err := wire.DecodeClientResponse(buf[wire.SeqNumSize:])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.ClientOrderId != 3 || decoded.MarketOrderId != 99 || decoded.LeavesQty != 10 {
		t.Fatalf("round-tripped response mismatch: %+v", decoded)
	}
}

// Package gateway implements the exchange-side process: per-session TCP
// framing and sequencing, the single-threaded matching loop's ingress
// queue, the market-data publisher, and the admin HTTP surface
// (spec.md §4.4).
package gateway

import (
	"bufio"
	"io"
	"net"
	"sync/atomic"

	"github.com/abdoElHodaky/tradsys-core/pkg/spsc"
	"github.com/abdoElHodaky/tradsys-core/pkg/types"
	"github.com/abdoElHodaky/tradsys-core/pkg/wire"
	"github.com/abdoElHodaky/tradsys-core/pkg/xerrors"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// SessionId tags one accepted connection for the lifetime of the
// process; it never crosses the wire.
type SessionId uint64

// Session owns one client's connection: its own inbound/outbound
// sequence counters, a response queue drained by the writer goroutine,
// a rate limiter for inbound requests, and a circuit breaker guarding
// the socket write path.
type Session struct {
	Id       SessionId
	ClientId types.ClientId

	conn   net.Conn
	reader *bufio.Reader

	nextExpectedIn uint64
	nextSentOut    uint64

	responses *spsc.Queue[types.ClientResponse]
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker

	closed int32
}

// NewSession wraps an accepted connection. responseQueueCapacity bounds
// the per-session outbound response queue; ratePerSec/burst bound
// inbound request throughput.
func NewSession(id SessionId, conn net.Conn, responseQueueCapacity int, ratePerSec float64, burst int, cb CircuitBreakerSettings) *Session {
	return &Session{
		Id:             id,
		conn:           conn,
		reader:         bufio.NewReader(conn),
		nextExpectedIn: 1,
		nextSentOut:    1,
		responses:      spsc.New[types.ClientResponse](responseQueueCapacity),
		limiter:        rate.NewLimiter(rate.Limit(ratePerSec), burst),
		breaker:        newBreaker(cb),
	}
}

// CircuitBreakerSettings configures the gobreaker wrapping session
// writes; see internal/config.CircuitBreakerConfig.
type CircuitBreakerSettings struct {
	MaxRequests  uint32
	IntervalSecs float64
	TimeoutSecs  float64
	FailureRatio float64
}

// Closed reports whether the session has been torn down.
func (s *Session) Closed() bool { return atomic.LoadInt32(&s.closed) != 0 }

// Close marks the session closed and releases the underlying socket.
// Idempotent.
func (s *Session) Close() {
	if atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		s.conn.Close()
	}
}

// handshakeSize is client_id:u32 followed by starting seq_num:u64.
const handshakeSize = 4 + 8

// ReadHandshake reads the session-opening handshake (spec.md §6),
// learning the session's client_id and the seq_num it should expect
// next. Must be called once, before the first ReadRequest.
func (s *Session) ReadHandshake() error {
	var buf [handshakeSize]byte
	if _, err := io.ReadFull(s.reader, buf[:]); err != nil {
		return xerrors.Wrap(err, xerrors.CodeWireProtocol, "reading session handshake")
	}
	s.ClientId = types.ClientId(leUint32(buf[:4]))
	s.nextExpectedIn = leUint64(buf[4:12])
	return nil
}

// ReadRequest reads one framed ClientRequest: an 8-byte seq_num prefix
// followed by the packed ClientRequestSize payload. It enforces FIFO
// per-session sequencing — a gap closes the session per spec.md §4.4.
func (s *Session) ReadRequest() (types.ClientRequest, error) {
	var buf [wire.SeqNumSize + wire.ClientRequestSize]byte
	if _, err := io.ReadFull(s.reader, buf[:]); err != nil {
		return types.ClientRequest{}, err
	}
	seq := leUint64(buf[:wire.SeqNumSize])
	if seq != s.nextExpectedIn {
		return types.ClientRequest{}, xerrors.Newf(xerrors.CodeWireProtocol,
			"session %d: sequence gap: expected %d got %d", s.Id, s.nextExpectedIn, seq).WithScalar(int64(seq))
	}
	req, err := wire.DecodeClientRequest(buf[wire.SeqNumSize:])
	if err != nil {
		return types.ClientRequest{}, xerrors.Wrap(err, xerrors.CodeWireProtocol, "decoding client request")
	}
	s.nextExpectedIn++
	return req, nil
}

// Allow reports whether the session's rate limiter currently permits one
// more inbound request.
func (s *Session) Allow() bool { return s.limiter.Allow() }

// EnqueueResponse pushes a response onto this session's outbound queue,
// for the writer goroutine to drain. Returns false if the queue is full
// (back-pressure; the caller counts this as a dropped response, not a
// protocol error).
func (s *Session) EnqueueResponse(resp types.ClientResponse) bool {
	return s.responses.Push(resp)
}

// WriteNext drains and writes at most one queued response through the
// circuit breaker. Returns false if the queue was empty.
func (s *Session) WriteNext() (wrote bool, err error) {
	resp, ok := s.responses.Pop()
	if !ok {
		return false, nil
	}
	_, err = s.breaker.Execute(func() (interface{}, error) {
		return nil, s.writeResponse(resp)
	})
	return true, err
}

func (s *Session) writeResponse(resp types.ClientResponse) error {
	var buf [wire.SeqNumSize + wire.ClientResponseSize]byte
	putUint64(buf[:wire.SeqNumSize], s.nextSentOut)
	wire.EncodeClientResponse(buf[wire.SeqNumSize:], resp)
	if _, err := s.conn.Write(buf[:]); err != nil {
		return err
	}
	s.nextSentOut++
	return nil
}

func newBreaker(cb CircuitBreakerSettings) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "session-writer",
		MaxRequests: cb.MaxRequests,
		Interval:    secondsToDuration(cb.IntervalSecs),
		Timeout:     secondsToDuration(cb.TimeoutSecs),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 1 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cb.FailureRatio
		},
	})
}

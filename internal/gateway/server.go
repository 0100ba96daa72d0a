package gateway

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/abdoElHodaky/tradsys-core/internal/logging"
	"github.com/abdoElHodaky/tradsys-core/internal/matching"
	"github.com/abdoElHodaky/tradsys-core/internal/metrics"
	"github.com/abdoElHodaky/tradsys-core/pkg/spsc"
	"github.com/abdoElHodaky/tradsys-core/pkg/types"
)

// ingressItem tags a decoded request with the session it arrived on, so
// the single matching-loop goroutine can route responses back without
// a second lookup.
type ingressItem struct {
	session *Session
	request types.ClientRequest
}

// Server owns session lifecycle, the single-threaded matching loop, and
// the glue queues between them. One Server per exchange process.
type Server struct {
	listener net.Listener
	engine   *matching.Engine
	publisher *Publisher
	log      *logging.Producer
	metrics  *metrics.Registry

	ingress *spsc.Queue[ingressItem]

	sessionsMu sync.RWMutex
	sessions   map[SessionId]*Session
	byClientId map[types.ClientId]*Session
	nextID     uint64

	responseQueueCapacity int
	ratePerSec            float64
	rateBurst             int
	breakerSettings       CircuitBreakerSettings

	shutdown int32
}

// NewServer binds addr and constructs a Server around an existing
// matching Engine and Publisher. Capacities and resilience settings come
// from internal/config.
func NewServer(addr string, engine *matching.Engine, publisher *Publisher, logProducer *logging.Producer, reg *metrics.Registry, ingressCapacity, responseQueueCapacity int, ratePerSec float64, rateBurst int, breakerSettings CircuitBreakerSettings) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener:              ln,
		engine:                engine,
		publisher:             publisher,
		log:                   logProducer,
		metrics:               reg,
		ingress:               spsc.New[ingressItem](ingressCapacity),
		sessions:              make(map[SessionId]*Session),
		byClientId:            make(map[types.ClientId]*Session),
		responseQueueCapacity: responseQueueCapacity,
		ratePerSec:            ratePerSec,
		rateBurst:             rateBurst,
		breakerSettings:       breakerSettings,
	}, nil
}

// Shutdown sets the process-wide flag the acceptor and matching loops
// poll at their next iteration.
func (s *Server) Shutdown() { atomic.StoreInt32(&s.shutdown, 1) }

func (s *Server) isShutdown() bool { return atomic.LoadInt32(&s.shutdown) != 0 }

// AcceptLoop accepts connections until Shutdown is called, spawning a
// reader and writer goroutine per session.
func (s *Server) AcceptLoop() {
	for !s.isShutdown() {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.isShutdown() {
				return
			}
			s.log.Formatted(logging.LevelWarn, "gateway: accept error: "+err.Error())
			continue
		}
		s.addSession(conn)
	}
}

func (s *Server) addSession(conn net.Conn) {
	id := SessionId(atomic.AddUint64(&s.nextID, 1))
	sess := NewSession(id, conn, s.responseQueueCapacity, s.ratePerSec, s.rateBurst, s.breakerSettings)

	s.sessionsMu.Lock()
	s.sessions[id] = sess
	s.sessionsMu.Unlock()
	if s.metrics != nil {
		s.metrics.SessionsActive.Inc()
	}

	go s.readLoop(sess)
	go s.writeLoop(sess)
}

func (s *Server) removeSession(sess *Session) {
	sess.Close()
	s.sessionsMu.Lock()
	delete(s.sessions, sess.Id)
	delete(s.byClientId, sess.ClientId)
	s.sessionsMu.Unlock()
	if s.metrics != nil {
		s.metrics.SessionsActive.Dec()
	}
}

// registerClientId indexes sess by the client_id learned at handshake.
func (s *Server) registerClientId(sess *Session) {
	s.sessionsMu.Lock()
	s.byClientId[sess.ClientId] = sess
	s.sessionsMu.Unlock()
}

// readLoop decodes framed requests and enqueues them for the matching
// loop. Back-pressure: if the ingress queue is full, this tick does not
// drain further — no request is dropped, but the session's reader
// stalls until the matching loop catches up (spec.md §4.4).
func (s *Server) readLoop(sess *Session) {
	defer s.removeSession(sess)
	if err := sess.ReadHandshake(); err != nil {
		s.log.Formatted(logging.LevelWarn, "gateway: handshake failed: "+err.Error())
		return
	}
	s.registerClientId(sess)
	var idle idleBackoff
	for !s.isShutdown() && !sess.Closed() {
		req, err := sess.ReadRequest()
		if err != nil {
			return // wire error or EOF: session-fatal, not process-fatal
		}
		if !sess.Allow() {
			sess.EnqueueResponse(types.ClientResponse{
				Type: types.RespRejected, ClientId: req.ClientId, Ticker: req.Ticker,
				ClientOrderId: req.OrderId, Reason: types.RejectBackpressure,
			})
			continue
		}
		for !s.ingress.Push(ingressItem{session: sess, request: req}) {
			if s.isShutdown() {
				return
			}
			idle.wait()
		}
		idle.reset()
	}
}

// writeLoop drains a session's outbound response queue to its socket.
// A write error (or an open breaker) closes the session, which also
// ends its readLoop.
func (s *Server) writeLoop(sess *Session) {
	var idle idleBackoff
	for !s.isShutdown() && !sess.Closed() {
		wrote, err := sess.WriteNext()
		if err != nil {
			sess.Close()
			return
		}
		if !wrote {
			idle.wait()
			continue
		}
		idle.reset()
	}
}

// MatchingLoop is the single-threaded matching engine's run body: pop
// one request, process it to completion, route responses and market
// updates, then poll the next (spec.md §4.4's ordering guarantee).
func (s *Server) MatchingLoop() {
	var idle idleBackoff
	for {
		item, ok := s.ingress.Pop()
		if !ok {
			if s.isShutdown() {
				return
			}
			idle.wait()
			continue
		}
		idle.reset()
		s.processOne(item)
	}
}

func (s *Server) processOne(item ingressItem) {
	responses, updates, err := s.engine.Process(item.request)
	if err != nil {
		s.log.Formatted(logging.LevelError, "gateway: matching error: "+err.Error())
		return
	}
	if s.metrics != nil {
		s.metrics.OrdersProcessed.WithLabelValues(tickerLabel(item.request.Ticker), requestTypeLabel(item.request.Type)).Inc()
	}
	for _, resp := range responses {
		if resp.Type == types.RespRejected && s.metrics != nil {
			s.metrics.Rejections.WithLabelValues(string(resp.Reason)).Inc()
		}
		target := s.sessionFor(resp.ClientId)
		if target == nil {
			continue
		}
		if !target.EnqueueResponse(resp) {
			s.log.WarnInt("gateway: response queue full, dropping", "client_id", int64(resp.ClientId))
		}
	}
	for _, upd := range updates {
		if upd.Type == types.MDTrade && s.metrics != nil {
			s.metrics.TradesExecuted.WithLabelValues(tickerLabel(upd.Ticker)).Inc()
		}
		s.publisher.Publish(upd)
	}
}

func (s *Server) sessionFor(clientId types.ClientId) *Session {
	s.sessionsMu.RLock()
	defer s.sessionsMu.RUnlock()
	return s.byClientId[clientId]
}

func tickerLabel(t types.TickerId) string      { return itoa(uint64(t)) }
func requestTypeLabel(t types.ClientRequestType) string {
	switch t {
	case types.ReqNew:
		return "new"
	case types.ReqCancel:
		return "cancel"
	case types.ReqModify:
		return "modify"
	default:
		return "unknown"
	}
}

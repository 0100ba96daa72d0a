package gateway

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/abdoElHodaky/tradsys-core/internal/metrics"
	"github.com/abdoElHodaky/tradsys-core/pkg/types"
	"github.com/gorilla/websocket"
)

// Publisher is the market-data broadcast hub: one goroutine owns the
// subscriber set, assigns each MarketUpdate a monotonically increasing
// seq_num, and fans it out to every subscriber's send queue. A
// subscriber whose queue is full is dropped rather than allowed to
// stall the publish path (spec.md §4.10's best-effort contract).
type Publisher struct {
	upgrader websocket.Upgrader

	register   chan *subscriber
	unregister chan *subscriber
	publish    chan types.MarketUpdate

	seqNum  uint64
	dropped uint64
	metrics *metrics.Registry

	subscriberQueueDepth int

	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// wireUpdate is the JSON form of a MarketUpdate sent to websocket
// subscribers. The packed binary MarketUpdate struct (pkg/wire) is the
// canonical wire contract for in-process/test purposes; JSON is this
// transport's concrete encoding.
type wireUpdate struct {
	SeqNum   uint64         `json:"seq_num"`
	Type     string         `json:"type"`
	Ticker   types.TickerId `json:"ticker"`
	OrderId  types.OrderId  `json:"order_id"`
	Side     string         `json:"side"`
	Price    types.Price    `json:"price"`
	Qty      types.Qty      `json:"qty"`
	Priority types.Priority `json:"priority"`
}

// NewPublisher constructs a Publisher with a given subscriber send-queue
// depth. Call Run in its own goroutine before Publish is used.
func NewPublisher(reg *metrics.Registry, subscriberQueueDepth int) *Publisher {
	return &Publisher{
		upgrader:    websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 4096},
		register:    make(chan *subscriber),
		unregister:  make(chan *subscriber),
		publish:     make(chan types.MarketUpdate, 4096),
		metrics:     reg,
		subscribers: make(map[*subscriber]struct{}),

		subscriberQueueDepth: subscriberQueueDepth,
	}
}

// Run is the hub's event loop: register/unregister/broadcast, serialized
// onto one goroutine so seq_num assignment has a single writer.
func (p *Publisher) Run() {
	for {
		select {
		case sub := <-p.register:
			p.mu.Lock()
			p.subscribers[sub] = struct{}{}
			p.mu.Unlock()
		case sub := <-p.unregister:
			p.mu.Lock()
			if _, ok := p.subscribers[sub]; ok {
				delete(p.subscribers, sub)
				close(sub.send)
			}
			p.mu.Unlock()
		case upd := <-p.publish:
			p.broadcast(upd)
		}
	}
}

// Publish enqueues a MarketUpdate for broadcast without blocking. The
// publish channel buffers 4096 updates; once it is full, the update is
// discarded and counted in Dropped. A discarded update never receives a
// seq_num.
func (p *Publisher) Publish(upd types.MarketUpdate) {
	select {
	case p.publish <- upd:
	default:
		atomic.AddUint64(&p.dropped, 1)
	}
}

// Dropped returns the number of updates Publish discarded because the
// publish channel was full.
func (p *Publisher) Dropped() uint64 { return atomic.LoadUint64(&p.dropped) }

func (p *Publisher) broadcast(upd types.MarketUpdate) {
	seq := atomic.AddUint64(&p.seqNum, 1)
	if p.metrics != nil {
		p.metrics.PublisherSeqNum.Set(float64(seq))
	}
	payload, err := json.Marshal(toWireUpdate(seq, upd))
	if err != nil {
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	for sub := range p.subscribers {
		select {
		case sub.send <- payload:
		default:
			// Subscriber can't keep up; drop it rather than stall the hub.
			go p.Unregister(sub)
		}
	}
}

// Register and Unregister add/remove a subscriber from the hub's set.
func (p *Publisher) Register(sub *subscriber)   { p.register <- sub }
func (p *Publisher) Unregister(sub *subscriber) { p.unregister <- sub }

// ServeHTTP upgrades an incoming connection to a websocket subscriber
// and pumps queued payloads to it until the connection drops.
func (p *Publisher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := p.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	sub := &subscriber{conn: conn, send: make(chan []byte, p.subscriberQueueDepth)}
	p.Register(sub)
	go p.writePump(sub)
	go p.readPump(sub)
}

func (p *Publisher) writePump(sub *subscriber) {
	defer sub.conn.Close()
	for payload := range sub.send {
		if err := sub.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

// readPump discards inbound frames; this feed is publish-only. It exists
// to detect the peer closing the connection and unregister promptly.
func (p *Publisher) readPump(sub *subscriber) {
	defer p.Unregister(sub)
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func toWireUpdate(seq uint64, upd types.MarketUpdate) wireUpdate {
	return wireUpdate{
		SeqNum:   seq,
		Type:     marketUpdateTypeLabel(upd.Type),
		Ticker:   upd.Ticker,
		OrderId:  upd.OrderId,
		Side:     sideLabel(upd.Side),
		Price:    upd.Price,
		Qty:      upd.Qty,
		Priority: upd.Priority,
	}
}

func marketUpdateTypeLabel(t types.MarketUpdateType) string {
	switch t {
	case types.MDAdd:
		return "add"
	case types.MDModify:
		return "modify"
	case types.MDCancel:
		return "cancel"
	case types.MDTrade:
		return "trade"
	case types.MDClear:
		return "clear"
	default:
		return "unknown"
	}
}

func sideLabel(s types.Side) string {
	if s == types.Buy {
		return "buy"
	}
	return "sell"
}

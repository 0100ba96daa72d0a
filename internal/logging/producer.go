package logging

import (
	"sync/atomic"

	"github.com/abdoElHodaky/tradsys-core/pkg/spsc"
)

// Producer is the hot-path handle: one per hot-path thread, each backed
// by its own SPSC queue to a shared Consumer goroutine. It never blocks;
// a full queue increments Dropped and discards the record.
type Producer struct {
	queue   *spsc.Queue[Record]
	dropped uint64
}

// NewProducer creates a producer backed by a queue of the given capacity
// (rounded up to a power of two by pkg/spsc).
func NewProducer(capacity int) *Producer {
	return &Producer{queue: spsc.New[Record](capacity)}
}

// Dropped returns the number of records discarded because the queue was
// full at push time.
func (p *Producer) Dropped() uint64 { return atomic.LoadUint64(&p.dropped) }

func (p *Producer) push(r Record) {
	if !p.queue.Push(r) {
		atomic.AddUint64(&p.dropped, 1)
	}
}

func (p *Producer) Debug(msg string) { p.push(newRecord(LevelDebug, msg)) }
func (p *Producer) Info(msg string)  { p.push(newRecord(LevelInfo, msg)) }
func (p *Producer) Warn(msg string)  { p.push(newRecord(LevelWarn, msg)) }
func (p *Producer) Error(msg string) { p.push(newRecord(LevelError, msg)) }

func (p *Producer) InfoInt(msg, field string, v int64)     { p.push(newRecord(LevelInfo, msg).WithInt(field, v)) }
func (p *Producer) WarnInt(msg, field string, v int64)     { p.push(newRecord(LevelWarn, msg).WithInt(field, v)) }
func (p *Producer) ErrorInt(msg, field string, v int64)    { p.push(newRecord(LevelError, msg).WithInt(field, v)) }
func (p *Producer) InfoUint(msg, field string, v uint64)   { p.push(newRecord(LevelInfo, msg).WithUint(field, v)) }
func (p *Producer) InfoFloat(msg, field string, v float64) { p.push(newRecord(LevelInfo, msg).WithFloat(field, v)) }

// Formatted is the off-hot-path escape hatch: the caller has already
// paid the allocation cost of fmt.Sprintf, so this is for startup,
// shutdown, and error paths — not the matching loop or feature engine.
func (p *Producer) Formatted(level Level, formatted string) {
	r := newRecord(level, "")
	r.Formatted = formatted
	p.push(r)
}

// tryPop pops at most one buffered record, for the consumer.
func (p *Producer) tryPop() (Record, bool) { return p.queue.Pop() }

package logging

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Consumer drains one or more Producers' queues on a single goroutine
// and renders each Record through zap. This is the only goroutine in
// the process that ever calls into zap's formatting machinery, so the
// hot-path producers never pay for it.
type Consumer struct {
	logger    *zap.Logger
	producers []*Producer
	idle      idleBackoff
	shutdown  *int32
}

// NewConsumer creates a consumer draining producers, rendering through
// logger. shutdown is a process-wide flag the consumer polls so it can
// drain remaining records before the owning goroutine exits.
func NewConsumer(logger *zap.Logger, shutdown *int32, producers ...*Producer) *Consumer {
	return &Consumer{logger: logger, producers: producers, shutdown: shutdown}
}

// Run drains forever until shutdown is set and the queues are empty.
// It is meant to be the body of the logger goroutine (spec.md §5).
func (c *Consumer) Run() {
	for {
		drained := c.drainOnce()
		if !drained {
			if atomic.LoadInt32(c.shutdown) != 0 {
				return
			}
			c.idle.wait()
			continue
		}
		c.idle.reset()
	}
}

// drainOnce pops and renders at most one record per producer, returning
// whether any record was found.
func (c *Consumer) drainOnce() bool {
	any := false
	for _, p := range c.producers {
		if r, ok := p.tryPop(); ok {
			c.render(r)
			any = true
		}
	}
	return any
}

func (c *Consumer) render(r Record) {
	if r.Formatted != "" {
		c.logger.Log(zapLevel(r.Level), r.Formatted)
		return
	}
	fields := make([]zap.Field, 0, 1)
	if iv, ok := r.Int(); ok {
		fields = append(fields, zap.Int64(r.Field, iv))
	} else if uv, ok := r.Uint(); ok {
		fields = append(fields, zap.Uint64(r.Field, uv))
	} else if fv, ok := r.Float(); ok {
		fields = append(fields, zap.Float64(r.Field, fv))
	}
	c.logger.Log(zapLevel(r.Level), r.Msg, fields...)
}

func zapLevel(l Level) zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// idleBackoff implements the progressive spin -> yield -> sleep backoff
// spec.md §5 reserves for polling loops once they find nothing to do.
type idleBackoff struct {
	spins int
}

const (
	spinThreshold  = 64
	yieldThreshold = 256
)

func (b *idleBackoff) wait() {
	b.spins++
	switch {
	case b.spins < spinThreshold:
		return // busy-spin
	case b.spins < yieldThreshold:
		time.Sleep(0) // runtime.Gosched()-equivalent yield
	default:
		time.Sleep(50 * time.Microsecond)
	}
}

func (b *idleBackoff) reset() { b.spins = 0 }

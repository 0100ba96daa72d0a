package logging

import (
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestConsumerDrainsAndRenders(t *testing.T) {
	logger := zaptest.NewLogger(t)
	producer := NewProducer(8)
	var shutdown int32

	producer.Info("book opened")
	producer.InfoInt("order accepted", "order_id", 42)

	c := NewConsumer(logger, &shutdown, producer)
	if !c.drainOnce() {
		t.Fatal("expected first drain to find a record")
	}
	if !c.drainOnce() {
		t.Fatal("expected second drain to find the second record")
	}
	if c.drainOnce() {
		t.Fatal("expected queue to be empty after two drains")
	}
}

func TestProducerDropsOnFullQueue(t *testing.T) {
	producer := NewProducer(2) // rounds up to 2
	for i := 0; i < 10; i++ {
		producer.Info("x")
	}
	if producer.Dropped() == 0 {
		t.Fatal("expected some records to be dropped once the queue filled")
	}
}

func TestRunStopsAfterShutdownWhenDrained(t *testing.T) {
	logger := zaptest.NewLogger(t)
	producer := NewProducer(8)
	var shutdown int32
	producer.Info("last message")

	c := NewConsumer(logger, &shutdown, producer)
	atomic.StoreInt32(&shutdown, 1)

	done := make(chan struct{})
	go func() {
		c.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after shutdown was set and queue drained")
	}
}

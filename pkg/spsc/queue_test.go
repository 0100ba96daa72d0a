package spsc

import (
	"sync"
	"testing"
)

func TestPushPopOrder(t *testing.T) {
	q := New[int](4)
	if q.Cap() != 4 {
		t.Fatalf("expected capacity 4, got %d", q.Cap())
	}

	for i := 0; i < 4; i++ {
		if !q.Push(i) {
			t.Fatalf("push %d should have succeeded", i)
		}
	}
	if q.Push(99) {
		t.Fatal("push into full queue should fail")
	}

	for i := 0; i < 4; i++ {
		v, ok := q.Pop()
		if !ok || v != i {
			t.Fatalf("expected %d, got %d (ok=%v)", i, v, ok)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("pop from empty queue should fail")
	}
}

func TestNonPowerOfTwoCapacityRoundsUp(t *testing.T) {
	q := New[int](5)
	if q.Cap() != 8 {
		t.Fatalf("expected rounded capacity 8, got %d", q.Cap())
	}
}

func TestConcurrentProducerConsumerPreservesOrder(t *testing.T) {
	const n = 200000
	q := New[int](1024)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			for !q.Push(i) {
				// spin: capacity is bounded, consumer is draining concurrently
			}
		}
	}()

	got := make([]int, 0, n)
	go func() {
		defer wg.Done()
		for len(got) < n {
			v, ok := q.Pop()
			if !ok {
				continue
			}
			got = append(got, v)
		}
	}()

	wg.Wait()

	for i, v := range got {
		if v != i {
			t.Fatalf("pop sequence diverged at index %d: want %d got %d", i, i, v)
		}
	}
}

func TestOccupancyBounds(t *testing.T) {
	q := New[int](8)
	for i := 0; i < 6; i++ {
		q.Push(i)
	}
	if l := q.Len(); l != 6 {
		t.Fatalf("expected len 6, got %d", l)
	}
	q.Pop()
	q.Pop()
	if l := q.Len(); l != 4 {
		t.Fatalf("expected len 4, got %d", l)
	}
}

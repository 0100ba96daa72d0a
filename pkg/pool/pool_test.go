package pool

import "testing"

func TestAllocateFreeRoundTrip(t *testing.T) {
	p := New[int](4)
	if p.Cap() != 4 || p.Live() != 0 || p.FreeCount() != 4 {
		t.Fatalf("unexpected initial state: cap=%d live=%d free=%d", p.Cap(), p.Live(), p.FreeCount())
	}

	h1, v1, ok := p.Allocate()
	if !ok {
		t.Fatal("allocate should succeed")
	}
	*v1 = 42
	if *p.Get(h1) != 42 {
		t.Fatal("expected stored value 42")
	}
	if p.Live() != 1 || p.FreeCount() != 3 {
		t.Fatalf("live+free invariant broken after one allocate")
	}

	p.FreeHandle(h1)
	if p.Live() != 0 || p.FreeCount() != 4 {
		t.Fatalf("live+free invariant broken after free")
	}
}

func TestExhaustion(t *testing.T) {
	p := New[int](2)
	_, _, ok1 := p.Allocate()
	_, _, ok2 := p.Allocate()
	_, _, ok3 := p.Allocate()
	if !ok1 || !ok2 {
		t.Fatal("first two allocations should succeed")
	}
	if ok3 {
		t.Fatal("third allocation should fail: pool exhausted")
	}
}

func TestDoubleFreePanics(t *testing.T) {
	p := New[int](2)
	h, _, _ := p.Allocate()
	p.FreeHandle(h)

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic on double free")
		}
	}()
	p.FreeHandle(h)
}

func TestStaleHandleAfterReuseIsRejected(t *testing.T) {
	p := New[int](1)
	h1, _, _ := p.Allocate()
	p.FreeHandle(h1)
	h2, _, _ := p.Allocate() // reuses the same index, new generation

	if h1.Index != h2.Index {
		t.Fatalf("expected index reuse in a capacity-1 pool")
	}

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic when dereferencing the stale handle")
		}
	}()
	p.Get(h1)
}

func TestLiveCountNeverNegativeAcrossChurn(t *testing.T) {
	p := New[int](3)
	for i := 0; i < 1000; i++ {
		h, _, ok := p.Allocate()
		if !ok {
			t.Fatalf("unexpected exhaustion at iteration %d", i)
		}
		if p.Live()+p.FreeCount() != p.Cap() {
			t.Fatalf("live+free != cap at iteration %d", i)
		}
		p.FreeHandle(h)
	}
}

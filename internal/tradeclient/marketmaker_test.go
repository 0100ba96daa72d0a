package tradeclient

import (
	"testing"

	"github.com/abdoElHodaky/tradsys-core/pkg/types"
)

// S5: fair_value=10000, half_spread=50, imbalance=0, position=0 ->
// quotes Bid 9950/base, Ask 10050/base. After a fill buying 50 at 9950,
// position=+50, next quote skews: bid qty < base, ask qty = base.
func TestS5MarketMakerQuotesAndSkewsOnPosition(t *testing.T) {
	mm := NewMarketMaker(1, 50, 100, 1000, 1)
	f := types.TickerFeatures{Ticker: 1, FairValue: 10000, Imbalance: 0, Valid: true}

	bid, ask := mm.DesiredQuotes(f, 0)
	if bid.Price != 9950 || ask.Price != 10050 {
		t.Fatalf("expected Bid 9950 / Ask 10050, got bid=%+v ask=%+v", bid, ask)
	}
	if bid.Qty != 100 || ask.Qty != 100 {
		t.Fatalf("expected base_qty=100 on both sides at flat position, got bid=%v ask=%v", bid.Qty, ask.Qty)
	}

	bid2, ask2 := mm.DesiredQuotes(f, 50)
	if bid2.Qty >= 100 {
		t.Fatalf("expected bid qty to shrink below base_qty after going long, got %v", bid2.Qty)
	}
	if ask2.Qty != 100 {
		t.Fatalf("expected ask qty to stay at base_qty after going long, got %v", ask2.Qty)
	}
}

func TestMarketMakerNeedsRequoteWhenAbsent(t *testing.T) {
	mm := NewMarketMaker(1, 50, 100, 1000, 1)
	if !mm.NeedsRequote(nil, Quote{Price: 9950, Qty: 100}) {
		t.Fatalf("expected requote needed when no current order exists")
	}
	if mm.NeedsRequote(nil, Quote{Price: 9950, Qty: 0}) {
		t.Fatalf("expected no requote needed for a zero-qty desired quote with nothing resting")
	}
}

func TestMarketMakerNeedsRequoteOnPriceDrift(t *testing.T) {
	mm := NewMarketMaker(1, 50, 100, 1000, 1)
	current := &WorkingOrder{Price: 9950, Qty: 100}
	if mm.NeedsRequote(current, Quote{Price: 9950, Qty: 100}) {
		t.Fatalf("expected no requote when desired matches current exactly")
	}
	if !mm.NeedsRequote(current, Quote{Price: 9960, Qty: 100}) {
		t.Fatalf("expected requote when price drifted beyond tolerance")
	}
}

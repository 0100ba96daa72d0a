package tradeclient

import (
	"math"
	"testing"

	"github.com/abdoElHodaky/tradsys-core/pkg/types"
)

func TestFeatureEngineInitializesFairValueToMid(t *testing.T) {
	fe := NewFeatureEngine(1, 0.3)
	f := fe.OnBBO(types.BBO{BidPrice: 9900, BidQty: 10, AskPrice: 10100, AskQty: 10})
	if f.FairValue != 10000 {
		t.Fatalf("expected fair_value seeded to mid 10000, got %v", f.FairValue)
	}
	if f.Spread != 200 {
		t.Fatalf("expected spread 200, got %v", f.Spread)
	}
	if f.Imbalance != 0 {
		t.Fatalf("expected imbalance 0 for equal qty, got %v", f.Imbalance)
	}
}

func TestFeatureEngineEWMASmoothing(t *testing.T) {
	fe := NewFeatureEngine(1, 0.5)
	fe.OnBBO(types.BBO{BidPrice: 9900, BidQty: 10, AskPrice: 10100, AskQty: 10}) // mid 10000, seeds fair_value
	f := fe.OnBBO(types.BBO{BidPrice: 10100, BidQty: 10, AskPrice: 10300, AskQty: 10}) // mid 10200
	want := 0.5*10200 + 0.5*10000
	if math.Abs(f.FairValue-want) > 1e-9 {
		t.Fatalf("expected EWMA fair_value %v, got %v", want, f.FairValue)
	}
}

func TestFeatureEngineZeroSpreadTreatsFirstTermAsZero(t *testing.T) {
	fe := NewFeatureEngine(1, 0.5)
	f := fe.OnBBO(types.BBO{BidPrice: 10000, BidQty: 5, AskPrice: 10000, AskQty: 15})
	if f.Spread != 0 {
		t.Fatalf("expected zero spread, got %v", f.Spread)
	}
	wantImbalance := float64(5-15) / float64(5+15)
	wantSignal := clamp(0.3*wantImbalance, -1, 1)
	if math.Abs(f.TradeSignal-wantSignal) > 1e-9 {
		t.Fatalf("expected trade_signal %v, got %v", wantSignal, f.TradeSignal)
	}
}

func TestFeatureEngineTradeSignalClamped(t *testing.T) {
	fe := NewFeatureEngine(1, 0.1) // slow EWMA so fair_value lags a sharp move
	// Seed fair_value at mid 10000, then move mid to 10100 with a 2-cent
	// spread: fair_value = 0.1*10100 + 0.9*10000 = 10010, so the raw
	// signal is 0.7*(10010-10100)/2 = -31.5, which the clamp caps at -1.
	fe.OnBBO(types.BBO{BidPrice: 9999, BidQty: 10, AskPrice: 10001, AskQty: 10})
	f := fe.OnBBO(types.BBO{BidPrice: 10099, BidQty: 10, AskPrice: 10101, AskQty: 10})
	if f.TradeSignal != -1 {
		t.Fatalf("expected trade_signal clamped to -1, got %v", f.TradeSignal)
	}
}

package tradeclient

import (
	"math"
	"testing"

	"github.com/abdoElHodaky/tradsys-core/pkg/types"
)

func approxEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s: got %v want %v", name, got, want)
	}
}

func TestPositionKeeperOpensFlatPosition(t *testing.T) {
	k := NewPositionKeeper(1)
	k.OnFill(types.Buy, 100, 10000)
	pos := k.Snapshot()
	if pos.Position != 100 {
		t.Fatalf("expected position 100, got %v", pos.Position)
	}
	approxEqual(t, "vwap", pos.VWAPOpenPrice, 10000)
	approxEqual(t, "realized", pos.RealizedPnL, 0)
}

func TestPositionKeeperVWAPBlendsAcrossOpeningFills(t *testing.T) {
	k := NewPositionKeeper(1)
	k.OnFill(types.Buy, 100, 10000)
	k.OnFill(types.Buy, 100, 10100)
	pos := k.Snapshot()
	if pos.Position != 200 {
		t.Fatalf("expected position 200, got %v", pos.Position)
	}
	approxEqual(t, "vwap", pos.VWAPOpenPrice, 10050)
}

func TestPositionKeeperPartialCloseRealizesPnLWithoutMovingVWAP(t *testing.T) {
	k := NewPositionKeeper(1)
	k.OnFill(types.Buy, 100, 10000)
	k.OnFill(types.Sell, 50, 10010)
	pos := k.Snapshot()
	if pos.Position != 50 {
		t.Fatalf("expected position 50, got %v", pos.Position)
	}
	approxEqual(t, "vwap", pos.VWAPOpenPrice, 10000)
	approxEqual(t, "realized", pos.RealizedPnL, 500) // 50 * (10010-10000)
}

func TestPositionKeeperFlipResetsVWAPToFlipPrice(t *testing.T) {
	k := NewPositionKeeper(1)
	k.OnFill(types.Buy, 100, 10000)
	k.OnFill(types.Sell, 150, 10010) // closes 100 long, opens 50 short
	pos := k.Snapshot()
	if pos.Position != -50 {
		t.Fatalf("expected position -50, got %v", pos.Position)
	}
	approxEqual(t, "realized", pos.RealizedPnL, 1000) // 100 * (10010-10000)
	approxEqual(t, "vwap", pos.VWAPOpenPrice, 10010)
}

func TestPositionKeeperFlatPositionResetsVWAP(t *testing.T) {
	k := NewPositionKeeper(1)
	k.OnFill(types.Buy, 100, 10000)
	k.OnFill(types.Sell, 100, 10020)
	pos := k.Snapshot()
	if pos.Position != 0 {
		t.Fatalf("expected flat position, got %v", pos.Position)
	}
	approxEqual(t, "vwap", pos.VWAPOpenPrice, 0)
	approxEqual(t, "realized", pos.RealizedPnL, 2000) // 100 * (10020-10000)
}

func TestPositionKeeperUnrealizedPnLFollowsMid(t *testing.T) {
	k := NewPositionKeeper(1)
	k.OnFill(types.Buy, 100, 10000)
	k.OnBBO(10050)
	pos := k.Snapshot()
	approxEqual(t, "unrealized", pos.UnrealizedPnL, 5000) // 100 * (10050-10000)
}

func TestPositionKeeperAcceptAndCancelTrackOpenQty(t *testing.T) {
	k := NewPositionKeeper(1)
	k.OnAccept(types.Buy, 100)
	pos := k.Snapshot()
	if pos.OpenBuyQty != 100 {
		t.Fatalf("expected open buy qty 100, got %v", pos.OpenBuyQty)
	}
	k.OnCancelOrReject(types.Buy, 100)
	pos = k.Snapshot()
	if pos.OpenBuyQty != 0 {
		t.Fatalf("expected open buy qty back to 0, got %v", pos.OpenBuyQty)
	}
}

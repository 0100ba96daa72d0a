package tradeclient

import (
	"testing"

	"github.com/abdoElHodaky/tradsys-core/pkg/types"
)

func testLimits() types.RiskLimits {
	return types.RiskLimits{MaxOrderQty: 500, MaxPosition: 1000, MaxLoss: 5000, MaxOpenOrders: 10}
}

// S6: max_position=1000, position=+950, submit Buy 100 -> PositionTooLarge;
// submit Sell 100 (risk-reducing) -> allowed.
func TestS6RiskGatePositionTooLargeUnlessReducing(t *testing.T) {
	gate := NewRiskGate(testLimits())
	pos := types.Position{Ticker: 1, Position: 950}

	ok, reason := gate.Evaluate(pos, types.Buy, 100, 0)
	if ok || reason != types.RejectPositionTooLarge {
		t.Fatalf("expected PositionTooLarge, got ok=%v reason=%v", ok, reason)
	}

	ok, _ = gate.Evaluate(pos, types.Sell, 100, 0)
	if !ok {
		t.Fatalf("expected risk-reducing sell to be allowed")
	}
}

func TestRiskGateOrderTooLargeRejectsFirst(t *testing.T) {
	gate := NewRiskGate(testLimits())
	pos := types.Position{Ticker: 1, Position: 5000} // would also fail position check
	ok, reason := gate.Evaluate(pos, types.Buy, 9999, 0)
	if ok || reason != types.RejectOrderTooLarge {
		t.Fatalf("expected OrderTooLarge to be checked first, got ok=%v reason=%v", ok, reason)
	}
}

func TestRiskGateLossTooLarge(t *testing.T) {
	gate := NewRiskGate(testLimits())
	pos := types.Position{Ticker: 1, RealizedPnL: -4000, UnrealizedPnL: -2000}
	ok, reason := gate.Evaluate(pos, types.Buy, 10, 0)
	if ok || reason != types.RejectLossTooLarge {
		t.Fatalf("expected LossTooLarge, got ok=%v reason=%v", ok, reason)
	}
}

func TestRiskGateOpenOrdersTooMany(t *testing.T) {
	gate := NewRiskGate(testLimits())
	pos := types.Position{Ticker: 1}
	ok, reason := gate.Evaluate(pos, types.Buy, 10, 10)
	if ok || reason != types.RejectOpenOrdersTooMany {
		t.Fatalf("expected OpenOrdersTooMany, got ok=%v reason=%v", ok, reason)
	}
}

func TestRiskGateAcceptsWithinAllLimits(t *testing.T) {
	gate := NewRiskGate(testLimits())
	pos := types.Position{Ticker: 1, Position: 100}
	ok, reason := gate.Evaluate(pos, types.Buy, 50, 2)
	if !ok {
		t.Fatalf("expected order to clear the risk gate, got reason=%v", reason)
	}
}

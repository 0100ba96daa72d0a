package tradeclient

import "github.com/abdoElHodaky/tradsys-core/pkg/types"

// RiskGate evaluates a candidate order against RiskLimits before it is
// sent, in the fixed order spec.md §4.5 mandates. Checks are
// conservative: a pass means the projected metric is within limits,
// never an approximation.
type RiskGate struct {
	limits types.RiskLimits
}

// NewRiskGate binds an immutable limit set for the session.
func NewRiskGate(limits types.RiskLimits) *RiskGate {
	return &RiskGate{limits: limits}
}

// Evaluate checks a new order of qty/side against pos and the caller's
// current working-order count, returning ok=false and the first
// violated reason. openOrderCount is the number of resting orders the
// caller currently has working across all tickers.
func (g *RiskGate) Evaluate(pos types.Position, side types.Side, qty types.Qty, openOrderCount int) (ok bool, reason types.RejectReason) {
	if qty > g.limits.MaxOrderQty {
		return false, types.RejectOrderTooLarge
	}

	openSideQty := pos.OpenBuyQty
	if side == types.Sell {
		openSideQty = pos.OpenSellQty
	}
	sgn := int64(1)
	if side == types.Sell {
		sgn = -1
	}
	projected := pos.Position + sgn*int64(openSideQty+qty)
	riskReducing := isRiskReducing(pos.Position, side)
	if !riskReducing && absInt64(projected) > g.limits.MaxPosition {
		return false, types.RejectPositionTooLarge
	}

	if pos.RealizedPnL+pos.UnrealizedPnL < -g.limits.MaxLoss {
		return false, types.RejectLossTooLarge
	}

	if openOrderCount >= g.limits.MaxOpenOrders {
		return false, types.RejectOpenOrdersTooMany
	}

	return true, ""
}

// isRiskReducing reports whether side opposes the current inventory's
// sign (spec.md §9's definition of "risk-reducing").
func isRiskReducing(position int64, side types.Side) bool {
	if position > 0 {
		return side == types.Sell
	}
	if position < 0 {
		return side == types.Buy
	}
	return false
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

package tradeclient

import "github.com/abdoElHodaky/tradsys-core/pkg/types"

// PositionKeeper tracks one ticker's inventory and P&L across fills,
// working-order counts across accepts/cancels, and unrealized P&L
// across BBO changes (spec.md §4.5).
type PositionKeeper struct {
	pos types.Position
}

// NewPositionKeeper starts a flat position for ticker.
func NewPositionKeeper(ticker types.TickerId) *PositionKeeper {
	return &PositionKeeper{pos: types.Position{Ticker: ticker}}
}

// Snapshot returns the current position by value.
func (k *PositionKeeper) Snapshot() types.Position { return k.pos }

// OnAccept increments the working-order counter for side.
func (k *PositionKeeper) OnAccept(side types.Side, qty types.Qty) {
	if side == types.Buy {
		k.pos.OpenBuyQty += qty
	} else {
		k.pos.OpenSellQty += qty
	}
}

// OnCancelOrReject decrements the working-order counter for side; the
// caller passes the order's still-working quantity at the time it left
// the book (its last known LeavesQty).
func (k *PositionKeeper) OnCancelOrReject(side types.Side, leavesQty types.Qty) {
	if side == types.Buy {
		k.pos.OpenBuyQty = subQty(k.pos.OpenBuyQty, leavesQty)
	} else {
		k.pos.OpenSellQty = subQty(k.pos.OpenSellQty, leavesQty)
	}
}

// OnFill applies one own-side fill: realized P&L for the portion that
// closes existing opposite inventory, vwap_open_price for the portion
// that extends inventory, and updates position and the working-order
// counter.
func (k *PositionKeeper) OnFill(side types.Side, execQty types.Qty, execPrice types.Price) {
	k.OnCancelOrReject(side, execQty) // executed quantity leaves the working count

	signedQty := float64(execQty)
	if side == types.Sell {
		signedQty = -signedQty
	}
	price := float64(execPrice)

	closing := closingQty(k.pos.Position, signedQty)
	if closing != 0 {
		k.pos.RealizedPnL += closing * (price - k.pos.VWAPOpenPrice) * sign(k.pos.Position)
	}
	qtySign := 1.0
	if signedQty < 0 {
		qtySign = -1.0
	}
	opening := signedQty - closing*qtySign
	if opening != 0 {
		existingAbs := absf(float64(k.pos.Position)) - closing
		openingAbs := absf(opening)
		if existingAbs+openingAbs > 0 {
			k.pos.VWAPOpenPrice = (k.pos.VWAPOpenPrice*existingAbs + price*openingAbs) / (existingAbs + openingAbs)
		}
	}
	k.pos.Position += int64(signedQty)
	if k.pos.Position == 0 {
		k.pos.VWAPOpenPrice = 0
	}
}

// OnBBO recomputes unrealized P&L from the current mid price.
func (k *PositionKeeper) OnBBO(mid float64) {
	k.pos.UnrealizedPnL = float64(k.pos.Position) * (mid - k.pos.VWAPOpenPrice)
}

// closingQty returns the portion of signedQty that closes (reduces the
// magnitude of) an existing position, capped at |position|.
func closingQty(position int64, signedQty float64) float64 {
	if position == 0 {
		return 0
	}
	posSign := sign(position)
	qtySign := 1.0
	if signedQty < 0 {
		qtySign = -1.0
	}
	if posSign == qtySign {
		return 0 // extending, not closing
	}
	closing := absf(signedQty)
	if positionAbs := absf(float64(position)); closing > positionAbs {
		closing = positionAbs
	}
	return closing
}

func sign(position int64) float64 {
	if position < 0 {
		return -1
	}
	return 1
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func subQty(a, b types.Qty) types.Qty {
	if b >= a {
		return 0
	}
	return a - b
}

package common

import (
	"github.com/peter-kozarec/solstice/pkg/utility/fixed"
)

// PositionState is one open position inside a portfolio snapshot.
type PositionState struct {
	Qty     Quantity    `json:"qty"`
	AvgCost fixed.Point `json:"avgCost"`
}

// State is a portfolio snapshot. Flat positions are omitted from the
// map; FillCount is cumulative for the session and never resets.
type State struct {
	Cash          fixed.Point              `json:"cash"`
	Equity        fixed.Point              `json:"equity"`
	RealizedPnl   fixed.Point              `json:"realizedPnl"`
	UnrealizedPnl fixed.Point              `json:"unrealizedPnl"`
	Positions     map[string]PositionState `json:"positions"`
	FillCount     Count                    `json:"fillCount"`
}

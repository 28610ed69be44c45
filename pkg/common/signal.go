package common

// Signal is a trading intention produced by a strategy. Qty is optional;
// zero means the order manager falls back to its configured default.
type Signal struct {
	Side   Side     `json:"side"`
	Qty    Quantity `json:"qty,omitempty"`
	Reason string   `json:"reason,omitempty"`
}

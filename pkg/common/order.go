package common

// Order is a request to trade, produced from a signal. The same schema
// rides both ORDER and ORDER_ACCEPTED events; acceptance copies the
// order through unchanged. Symbol and ts duplicate the envelope for
// payload self-containedness.
type Order struct {
	OrderID string   `json:"orderId"`
	Side    Side     `json:"side"`
	Qty     Quantity `json:"qty"`
	Symbol  string   `json:"symbol"`
	Ts      Millis   `json:"ts"`
}

// Reject is the risk engine's terminal refusal of an order. The symbol
// travels on the envelope.
type Reject struct {
	OrderID string `json:"orderId"`
	Reason  string `json:"reason"`
}

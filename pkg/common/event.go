package common

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Type identifies the payload carried by an event. The set is closed:
// anything outside it fails envelope decoding.
type Type uint8

const (
	TypeQuote Type = iota
	TypeBar
	TypeSignal
	TypeOrder
	TypeOrderAccepted
	TypeReject
	TypeFill
	TypeState
)

var typeNames = [...]string{
	"QUOTE",
	"BAR",
	"SIGNAL",
	"ORDER",
	"ORDER_ACCEPTED",
	"REJECT",
	"FILL",
	"STATE",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "UNKNOWN"
}

func (t Type) MarshalJSON() ([]byte, error) {
	if int(t) >= len(typeNames) {
		return nil, fmt.Errorf("common: unknown event type %d", uint8(t))
	}
	return []byte(`"` + typeNames[t] + `"`), nil
}

// UnmarshalJSON accepts the symbolic name or the numeric ordinal, so
// logs written by either encoding replay identically.
func (t *Type) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	for i, name := range typeNames {
		if s == name {
			*t = Type(i)
			return nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n < len(typeNames) {
		*t = Type(n)
		return nil
	}
	return fmt.Errorf("common: unknown event type %q", s)
}

// Event is the sole unit of communication between pipeline components.
// Events are immutable after creation; payloads travel by value. The
// timestamp is always producer-supplied, never the host clock.
type Event struct {
	ID        uuid.UUID `json:"id"`
	TimeStamp Millis    `json:"ts"`
	Type      Type      `json:"type"`
	Symbol    string    `json:"symbol"`
	Data      any       `json:"data"`
}

// NewEvent assigns a fresh unique id. Ids are never reused; derived
// events get new ids on every run, replay fidelity covers content and
// final state rather than identifiers.
func NewEvent(t Type, symbol string, ts Millis, data any) Event {
	return Event{
		ID:        uuid.New(),
		TimeStamp: ts,
		Type:      t,
		Symbol:    symbol,
		Data:      data,
	}
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var head struct {
		ID        uuid.UUID       `json:"id"`
		TimeStamp Millis          `json:"ts"`
		Type      Type            `json:"type"`
		Symbol    string          `json:"symbol"`
		Data      json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("common: event envelope: %w", err)
	}

	e.ID = head.ID
	e.TimeStamp = head.TimeStamp
	e.Type = head.Type
	e.Symbol = head.Symbol
	e.Data = nil

	if len(head.Data) == 0 || string(head.Data) == "null" {
		return nil
	}

	switch head.Type {
	case TypeQuote:
		var p Quote
		if err := json.Unmarshal(head.Data, &p); err != nil {
			return payloadErr(head.Type, err)
		}
		e.Data = p
	case TypeBar:
		var p Bar
		if err := json.Unmarshal(head.Data, &p); err != nil {
			return payloadErr(head.Type, err)
		}
		e.Data = p
	case TypeSignal:
		var p Signal
		if err := json.Unmarshal(head.Data, &p); err != nil {
			return payloadErr(head.Type, err)
		}
		e.Data = p
	case TypeOrder, TypeOrderAccepted:
		var p Order
		if err := json.Unmarshal(head.Data, &p); err != nil {
			return payloadErr(head.Type, err)
		}
		e.Data = p
	case TypeReject:
		var p Reject
		if err := json.Unmarshal(head.Data, &p); err != nil {
			return payloadErr(head.Type, err)
		}
		e.Data = p
	case TypeFill:
		var p Fill
		if err := json.Unmarshal(head.Data, &p); err != nil {
			return payloadErr(head.Type, err)
		}
		e.Data = p
	case TypeState:
		var p State
		if err := json.Unmarshal(head.Data, &p); err != nil {
			return payloadErr(head.Type, err)
		}
		e.Data = p
	default:
		return fmt.Errorf("common: no payload schema for type %d", uint8(head.Type))
	}
	return nil
}

func payloadErr(t Type, err error) error {
	return fmt.Errorf("common: %s payload: %w", t, err)
}

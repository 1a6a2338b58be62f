package transport

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-plot/engine/session"
)

// KindInserted is the outbound reply to a snapshot request.
const KindInserted session.Kind = "inserted"

// ErrUnknownKind is returned when decoding an envelope of an unknown type.
var ErrUnknownKind = errors.New("transport: unknown message type")

// Envelope is the wire form of every message in both directions.
type Envelope struct {
	Type    session.Kind    `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Inserted tells the host which plot landed after a snapshot request.
type Inserted struct {
	ID     string `json:"id"`
	PlotID string `json:"plot"`
}

// Decode parses one envelope into a session message.
//
// Parameters:
//   - data: the raw frame
//
// Returns:
//   - session.Message: a pointer to the decoded message
//   - error: a JSON error or ErrUnknownKind
func Decode(data []byte) (session.Message, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	msg, ok := session.New(env.Type)
	if !ok {
		return nil, fmt.Errorf("%q: %w", env.Type, ErrUnknownKind)
	}
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, msg); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", env.Type, err)
		}
	}
	return msg, nil
}

// Encode wraps a payload in an envelope.
//
// Parameters:
//   - kind: the message type
//   - payload: the value marshalled into the payload field
//
// Returns:
//   - []byte: the frame
//   - error: a JSON error
func Encode(kind session.Kind, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return json.Marshal(Envelope{Type: kind, Payload: raw})
}

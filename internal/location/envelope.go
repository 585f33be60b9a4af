// Package location carries address selections from the location picker to
// the screen that opened it. Messages are versioned envelopes and every
// delivery is acknowledged.
package location

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Version is the envelope version this build speaks.
const Version = 1

// Kind identifies the envelope payload.
type Kind string

const (
	KindAddressSelected Kind = "ADDRESS_SELECTED"
	KindAck             Kind = "ACK"
)

var (
	// ErrVersion is returned when an envelope carries an unsupported version.
	ErrVersion = errors.New("location: unsupported envelope version")
	// ErrNoAck is returned by Send when the opener did not acknowledge in time.
	ErrNoAck = errors.New("location: no acknowledgement from opener")
	// ErrUnknownKind is returned for envelopes of an unexpected kind.
	ErrUnknownKind = errors.New("location: unknown envelope kind")
)

// Envelope is the message exchanged between picker and opener.
type Envelope struct {
	Kind    Kind            `json:"kind"`
	Version int             `json:"version"`
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Address is the ADDRESS_SELECTED payload.
type Address struct {
	Address     string  `json:"address"`
	RoadAddress string  `json:"roadAddress,omitempty"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	PlaceID     string  `json:"placeId,omitempty"`
	LocationID  int64   `json:"locationId,omitempty"`
}

// Ack is the ACK payload. Error is empty when the opener applied the selection.
type Ack struct {
	Error string `json:"error,omitempty"`
}

// NewAddressEnvelope wraps addr.
func NewAddressEnvelope(id string, addr Address) (Envelope, error) {
	payload, err := json.Marshal(addr)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal address: %w", err)
	}
	return Envelope{Kind: KindAddressSelected, Version: Version, ID: id, Payload: payload}, nil
}

func newAck(id string, err error) Envelope {
	ack := Ack{}
	if err != nil {
		ack.Error = err.Error()
	}
	payload, _ := json.Marshal(ack)
	return Envelope{Kind: KindAck, Version: Version, ID: id, Payload: payload}
}

// Encode serializes an envelope.
func Encode(env Envelope) ([]byte, error) {
	return json.Marshal(env)
}

// Decode parses and validates an envelope.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("failed to decode envelope: %w", err)
	}
	if env.Version != Version {
		return env, fmt.Errorf("%w: %d", ErrVersion, env.Version)
	}
	switch env.Kind {
	case KindAddressSelected, KindAck:
	default:
		return env, fmt.Errorf("%w: %q", ErrUnknownKind, env.Kind)
	}
	return env, nil
}

// AddressOf extracts the address payload.
func AddressOf(env Envelope) (Address, error) {
	if env.Kind != KindAddressSelected {
		return Address{}, fmt.Errorf("%w: %q", ErrUnknownKind, env.Kind)
	}
	var addr Address
	if err := json.Unmarshal(env.Payload, &addr); err != nil {
		return Address{}, fmt.Errorf("failed to decode address payload: %w", err)
	}
	return addr, nil
}

package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultAckTimeout = 2 * time.Second

type delivery struct {
	data  []byte
	reply chan []byte
}

// Bus connects one picker to one opener.
type Bus struct {
	deliveries chan delivery
	ackTimeout time.Duration
	log        *zap.Logger
}

// NewBus creates a bus. Send gives up after ackTimeout without an ACK.
func NewBus(ackTimeout time.Duration, log *zap.Logger) *Bus {
	if ackTimeout <= 0 {
		ackTimeout = defaultAckTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{
		deliveries: make(chan delivery),
		ackTimeout: ackTimeout,
		log:        log,
	}
}

// Send posts addr to the opener and waits for its acknowledgement.
func (b *Bus) Send(ctx context.Context, addr Address) error {
	env, err := NewAddressEnvelope(uuid.NewString(), addr)
	if err != nil {
		return err
	}
	return b.SendEnvelope(ctx, env)
}

// SendEnvelope posts env as is and waits for the matching ACK.
func (b *Bus) SendEnvelope(ctx context.Context, env Envelope) error {
	data, err := Encode(env)
	if err != nil {
		return err
	}

	timer := time.NewTimer(b.ackTimeout)
	defer timer.Stop()

	d := delivery{data: data, reply: make(chan []byte, 1)}
	select {
	case b.deliveries <- d:
	case <-timer.C:
		return ErrNoAck
	case <-ctx.Done():
		return ctx.Err()
	}
	// The ack window restarts once the opener holds the envelope.
	timer.Reset(b.ackTimeout)

	select {
	case raw := <-d.reply:
		ack, err := Decode(raw)
		if err != nil {
			return err
		}
		if ack.Kind != KindAck || ack.ID != env.ID {
			return fmt.Errorf("%w: unexpected reply %s/%s", ErrNoAck, ack.Kind, ack.ID)
		}
		var body Ack
		if err := json.Unmarshal(ack.Payload, &body); err != nil {
			return fmt.Errorf("failed to decode ack: %w", err)
		}
		if body.Error != "" {
			if strings.HasPrefix(body.Error, ErrVersion.Error()) {
				return fmt.Errorf("%w: opener rejected envelope", ErrVersion)
			}
			return errors.New(body.Error)
		}
		return nil
	case <-timer.C:
		return ErrNoAck
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Serve receives envelopes until ctx is cancelled. Each valid selection is
// passed to apply and acknowledged with apply's error, if any.
func (b *Bus) Serve(ctx context.Context, apply func(Address) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d := <-b.deliveries:
			d.reply <- mustEncode(b.handle(d.data, apply))
		}
	}
}

func (b *Bus) handle(data []byte, apply func(Address) error) Envelope {
	env, err := Decode(data)
	if err != nil {
		b.log.Warn("rejected location envelope", zap.Error(err))
		return newAck(env.ID, err)
	}
	addr, err := AddressOf(env)
	if err != nil {
		b.log.Warn("rejected location envelope", zap.String("id", env.ID), zap.Error(err))
		return newAck(env.ID, err)
	}
	if err := apply(addr); err != nil {
		b.log.Error("failed to apply selected location", zap.String("id", env.ID), zap.Error(err))
		return newAck(env.ID, err)
	}
	b.log.Debug("location selected", zap.String("id", env.ID), zap.String("address", addr.Address))
	return newAck(env.ID, nil)
}

// mustEncode encodes an envelope the bus built itself.
func mustEncode(env Envelope) []byte {
	data, _ := Encode(env)
	return data
}

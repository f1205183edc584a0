/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// bridged lists the event types mirrored to NATS. Cache-style chatter
// stays in-process; lifecycle events are interesting to other services
// (podcast publisher, dashboards).
var bridged = []EventType{
	EventScheduleUpdate,
	EventSlotsCreated,
	EventSlotsDeleted,
	EventSeriesExtended,
	EventRecordingStarted,
	EventRecordingCompleted,
	EventRecordingFailed,
	EventEpisodePublished,
}

// natsMessage is the wire envelope published to NATS subjects.
type natsMessage struct {
	EventType EventType `json:"event_type"`
	Payload   Payload   `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
	NodeID    string    `json:"node_id"`
	MessageID string    `json:"message_id"`
}

// NATSBridge forwards bus events to NATS subjects huginn.events.<type>.
type NATSBridge struct {
	conn   *nats.Conn
	bus    *Bus
	nodeID string
	logger zerolog.Logger
	cancel context.CancelFunc
}

// NewNATSBridge connects to NATS and starts mirroring bus events.
// The bridge is best-effort: publish failures are logged, never fatal.
func NewNATSBridge(url string, bus *Bus, logger zerolog.Logger) (*NATSBridge, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	bridge := &NATSBridge{
		conn:   conn,
		bus:    bus,
		nodeID: uuid.NewString(),
		logger: logger.With().Str("component", "nats_bridge").Logger(),
		cancel: cancel,
	}

	for _, eventType := range bridged {
		sub := bus.Subscribe(eventType)
		go bridge.forward(ctx, eventType, sub)
	}

	bridge.logger.Info().Str("url", url).Msg("NATS event bridge connected")
	return bridge, nil
}

func (b *NATSBridge) forward(ctx context.Context, eventType EventType, sub Subscriber) {
	subject := "huginn.events." + string(eventType)
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-sub:
			if !ok {
				return
			}
			data, err := json.Marshal(natsMessage{
				EventType: eventType,
				Payload:   payload,
				Timestamp: time.Now().UTC(),
				NodeID:    b.nodeID,
				MessageID: uuid.NewString(),
			})
			if err != nil {
				b.logger.Error().Err(err).Str("event", string(eventType)).Msg("marshal event failed")
				continue
			}
			if err := b.conn.Publish(subject, data); err != nil {
				b.logger.Warn().Err(err).Str("subject", subject).Msg("publish to NATS failed")
			}
		}
	}
}

// Close stops the bridge and drains the NATS connection.
func (b *NATSBridge) Close() {
	b.cancel()
	if err := b.conn.Drain(); err != nil {
		b.logger.Warn().Err(err).Msg("NATS drain failed")
	}
}

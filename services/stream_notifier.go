package services

import (
	"log/slog"
	"sync"
	"time"

	pubnub "github.com/pubnub/go"

	"concert-stream/internal/access"
)

// Publisher pushes a message to a named channel.
type Publisher interface {
	Publish(channel string, message map[string]any) error
}

// PubNubPublisher adapts the PubNub client to Publisher.
type PubNubPublisher struct {
	pn *pubnub.PubNub
}

func NewPubNubPublisher(pn *pubnub.PubNub) *PubNubPublisher {
	return &PubNubPublisher{pn: pn}
}

func (p *PubNubPublisher) Publish(channel string, message map[string]any) error {
	_, _, err := p.pn.Publish().
		Channel(channel).
		Message(message).
		Execute()
	return err
}

// StreamNotifier pushes stream state transitions to ops channels.
// Clients still poll; the push is supplemental, so publish failures are
// logged and dropped.
type StreamNotifier struct {
	publisher Publisher
	log       *slog.Logger

	mu   sync.Mutex
	last map[string]access.StreamState
}

func NewStreamNotifier(publisher Publisher, log *slog.Logger) *StreamNotifier {
	return &StreamNotifier{
		publisher: publisher,
		log:       log,
		last:      make(map[string]access.StreamState),
	}
}

// NotifyState publishes when the observed state differs from the last
// one published for this concert. Repeated observations of the same
// state are silent.
func (n *StreamNotifier) NotifyState(concertID string, state access.StreamState) {
	if n.publisher == nil {
		return
	}

	n.mu.Lock()
	if n.last[concertID] == state {
		n.mu.Unlock()
		return
	}
	n.last[concertID] = state
	n.mu.Unlock()

	channel := "stream-status-" + concertID
	err := n.publisher.Publish(channel, map[string]any{
		"type":       "stream_status",
		"concert_id": concertID,
		"state":      string(state),
		"at":         time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		n.log.Warn("stream status publish failed",
			slog.String("concert", concertID),
			slog.String("state", string(state)),
			slog.String("error", err.Error()))
	}
}

package services

import (
	"context"
	"log/slog"

	"event-management/utils"

	pubnub "github.com/pubnub/go"
)

const (
	ChangeEventCreated = "event.created"
	ChangeEventUpdated = "event.updated"
	ChangeEventDeleted = "event.deleted"
)

// EventChange is the message published after an event is created, updated or deleted.
type EventChange struct {
	Type      string `json:"type"`
	EventID   string `json:"eventId"`
	Published bool   `json:"published"`
}

type Notifier interface {
	Notify(ctx context.Context, change EventChange) error
}

// NopNotifier drops every change. It is used when no PubNub keys are configured.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, EventChange) error { return nil }

type PubNubNotifier struct {
	PubNub  *pubnub.PubNub
	Channel string
	breaker *utils.CircuitBreaker
}

func NewPubNubNotifier(pn *pubnub.PubNub, channel string, breaker *utils.CircuitBreaker) *PubNubNotifier {
	return &PubNubNotifier{
		PubNub:  pn,
		Channel: channel,
		breaker: breaker,
	}
}

func (n *PubNubNotifier) Notify(ctx context.Context, change EventChange) error {
	return n.breaker.Execute(func() error {
		_, _, err := n.PubNub.Publish().
			Channel(n.Channel).
			Message(change).
			Execute()
		return err
	})
}

// notify publishes change and only logs failures; a notification never fails the caller.
func notify(ctx context.Context, n Notifier, change EventChange) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, change); err != nil {
		slog.Warn("Failed to publish event change",
			"type", change.Type,
			"eventId", change.EventID,
			"error", err,
		)
	}
}

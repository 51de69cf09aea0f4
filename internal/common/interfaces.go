package common

import (
	"context"
)

type Observer interface {
	Update(ctx context.Context, event NotificationEvent) error
	Name() string
}

type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	Notify(ctx context.Context, event NotificationEvent)
	NotifyAsync(event NotificationEvent) bool
}

// Publisher is what the chat services need from the notification layer.
type Publisher interface {
	Publish(ctx context.Context, event NotificationEvent)
}

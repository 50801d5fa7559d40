package capability

import (
	"context"

	"github.com/casualjim/vshl/internal/broker"
)

// MessageChannel carries the messages of one capability in both directions.
type MessageChannel struct {
	capability *Capability
	publisher  *publisherForwarder
	subscriber *subscriberForwarder
}

func newMessageChannel(ctx context.Context, b broker.Broker, c *Capability, recorder Recorder) *MessageChannel {
	subscriber := newSubscriberForwarder(ctx, b, c, recorder)
	return &MessageChannel{
		capability: c,
		subscriber: subscriber,
		publisher:  &publisherForwarder{capability: c, subscriber: subscriber},
	}
}

func (m *MessageChannel) Capability() *Capability {
	return m.capability
}

// Publish sends payload to the subscribers of action.
func (m *MessageChannel) Publish(ctx context.Context, action string, payload []byte) error {
	return m.publisher.forwardMessage(ctx, action, payload)
}

// Subscribe attaches hook to action.
func (m *MessageChannel) Subscribe(ctx context.Context, hook broker.Hook, action string) (broker.Subscription, error) {
	return m.subscriber.subscribe(ctx, hook, action)
}

func (m *MessageChannel) close() {
	m.subscriber.subs.UnsubscribeAll()
}

package capability

import (
	"context"
	"log/slog"

	"github.com/casualjim/vshl/internal/broker"
	"github.com/casualjim/vshl/internal/fault"
	"github.com/casualjim/vshl/pkg/slogx"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Directions of capability messages.
const (
	Upstream   = "upstream"
	Downstream = "downstream"
)

// subscriberForwarder owns one topic per action of a capability.
type subscriberForwarder struct {
	capability *Capability
	recorder   Recorder

	upstream   *orderedmap.OrderedMap[string, broker.Topic]
	downstream *orderedmap.OrderedMap[string, broker.Topic]
	subs       *broker.Group
}

func newSubscriberForwarder(ctx context.Context, b broker.Broker, c *Capability, recorder Recorder) *subscriberForwarder {
	f := &subscriberForwarder{
		capability: c,
		recorder:   recorder,
		upstream:   orderedmap.New[string, broker.Topic](),
		downstream: orderedmap.New[string, broker.Topic](),
		subs:       broker.NewGroup(),
	}
	for _, action := range c.Upstream() {
		f.upstream.Set(action, b.Topic(ctx, action))
	}
	for _, action := range c.Downstream() {
		f.downstream.Set(action, b.Topic(ctx, action))
	}
	return f
}

func (f *subscriberForwarder) topic(action string) (broker.Topic, string, bool) {
	if t, ok := f.upstream.Get(action); ok {
		return t, Upstream, true
	}
	if t, ok := f.downstream.Get(action); ok {
		return t, Downstream, true
	}
	return nil, "", false
}

func (f *subscriberForwarder) forwardMessage(ctx context.Context, action string, payload []byte) error {
	topic, direction, ok := f.topic(action)
	if !ok {
		slog.WarnContext(ctx, "cannot publish unknown action", f.logger(), slogx.Action(action))
		return fault.NotFound("action %s of capability %s", action, f.capability.Name())
	}

	slog.DebugContext(ctx, "publishing capability message", f.logger(), slogx.Action(action), slog.String("direction", direction))
	if err := topic.Publish(ctx, broker.NewEvent(action, payload)); err != nil {
		return err
	}
	f.recorder.MessagePublished(f.capability.Name(), action, direction)

	if direction == Upstream {
		f.capability.OnMessagePublished(ctx, action)
	}
	return nil
}

func (f *subscriberForwarder) subscribe(ctx context.Context, hook broker.Hook, action string) (broker.Subscription, error) {
	topic, direction, ok := f.topic(action)
	if !ok {
		slog.WarnContext(ctx, "cannot subscribe to unknown action", f.logger(), slogx.Action(action))
		return nil, fault.NotFound("action %s of capability %s", action, f.capability.Name())
	}

	slog.DebugContext(ctx, "subscribing to capability message", f.logger(), slogx.Action(action), slog.String("direction", direction))
	sub, err := topic.Subscribe(ctx, hook)
	if err != nil {
		return nil, fault.Validation("subscribe to %s: %v", action, err)
	}
	return f.subs.Track(sub), nil
}

func (f *subscriberForwarder) logger() slog.Attr {
	return slogx.LoggerName("vshl::capabilities::" + f.capability.Name())
}

// publisherForwarder hands published messages to its subscriber side.
type publisherForwarder struct {
	capability *Capability
	subscriber *subscriberForwarder
}

func (p *publisherForwarder) forwardMessage(ctx context.Context, action string, payload []byte) error {
	if p.subscriber == nil {
		return fault.State("no subscriber forwarder for capability %s", p.capability.Name())
	}
	return p.subscriber.forwardMessage(ctx, action, payload)
}

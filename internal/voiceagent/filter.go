package voiceagent

import (
	"context"
	"log/slog"

	"github.com/casualjim/vshl/internal/backend"
	"github.com/casualjim/vshl/internal/broker"
	"github.com/casualjim/vshl/internal/fault"
	"github.com/casualjim/vshl/internal/registry"
	"github.com/casualjim/vshl/pkg/slogx"
)

// FilterName identifies the voice agent event filter on the router.
const FilterName = "vshl::voiceagents::events"

// EventFilter owns the per agent channels for backend state events and
// republishes incoming backend events on them.
type EventFilter struct {
	broker   broker.Broker
	caller   backend.Caller
	channels registry.Registry[*channel]
}

// channel is a broker topic plus the subscriptions made on it through the
// filter.
type channel struct {
	topic broker.Topic
	subs  *broker.Group
}

func newEventFilter(b broker.Broker, caller backend.Caller) *EventFilter {
	return &EventFilter{
		broker:   b,
		caller:   caller,
		channels: registry.New[*channel](),
	}
}

func (f *EventFilter) Name() string {
	return FilterName
}

// CreateChannelsForAgent creates a channel for every backend state event of the
// agent. Channels that already exist are kept.
func (f *EventFilter) CreateChannelsForAgent(ctx context.Context, agentID string) {
	for _, event := range eventNames {
		name := ChannelName(event, agentID)
		f.channels.GetOrAdd(name, func() *channel {
			return &channel{
				topic: f.broker.Topic(ctx, name),
				subs:  broker.NewGroup(),
			}
		})
	}
}

// RemoveChannelsForAgent tears down the agent's channels: every subscription
// made on them is dropped, so channels created again for the same agent start
// without subscribers.
func (f *EventFilter) RemoveChannelsForAgent(agentID string) {
	for _, event := range eventNames {
		name := ChannelName(event, agentID)
		if ch, ok := f.channels.Get(name); ok {
			ch.subs.UnsubscribeAll()
			f.channels.Del(name)
		}
	}
}

// HasChannel reports whether the channel for event and agent exists.
func (f *EventFilter) HasChannel(event, agentID string) bool {
	_, ok := f.channels.Get(ChannelName(event, agentID))
	return ok
}

// Channels returns the names of all channels in sorted order.
func (f *EventFilter) Channels() []string {
	return f.channels.Names()
}

// Subscribe attaches hook to the agent's channel for event and asks the agent's
// backend to start emitting events. A failing backend call does not undo the
// subscription.
func (f *EventFilter) Subscribe(ctx context.Context, hook broker.Hook, event string, agent *VoiceAgent) (broker.Subscription, error) {
	if agent == nil {
		return nil, fault.Validation("voice agent is required")
	}
	if !IsKnownEvent(event) {
		return nil, fault.NotFound("event %s is not a known event", event)
	}

	name := ChannelName(event, agent.ID())
	ch, ok := f.channels.Get(name)
	if !ok {
		return nil, fault.NotFound("event channel %s does not exist", name)
	}

	sub, err := ch.topic.Subscribe(ctx, hook)
	if err != nil {
		return nil, fault.Validation("subscribe to %s: %v", name, err)
	}

	if err := f.caller.Call(ctx, agent.API(), backend.VerbSubscribe, nil); err != nil {
		slog.WarnContext(ctx, "failed to subscribe to voice agent",
			slogx.LoggerName(FilterName),
			slogx.AgentID(agent.ID()),
			slogx.Error(err),
		)
	}
	return ch.subs.Track(sub), nil
}

// OnIncomingEvent republishes payload on the agent's channel for event.
// Events without a matching channel are dropped but still count as handled.
func (f *EventFilter) OnIncomingEvent(ctx context.Context, event, agentID string, payload []byte) bool {
	name := ChannelName(event, agentID)
	ch, ok := f.channels.Get(name)
	if !ok {
		slog.DebugContext(ctx, "no channel for backend event", slogx.LoggerName(FilterName), slogx.EventName(name))
		return true
	}

	if err := ch.topic.Publish(ctx, broker.NewEvent(name, payload)); err != nil {
		slog.ErrorContext(ctx, "failed to publish backend event",
			slogx.LoggerName(FilterName),
			slogx.EventName(name),
			slogx.Error(err),
		)
		return false
	}
	return true
}

func (f *EventFilter) close() {
	for _, name := range f.channels.Names() {
		if ch, ok := f.channels.Get(name); ok {
			ch.subs.UnsubscribeAll()
		}
	}
	f.channels.Clear()
}

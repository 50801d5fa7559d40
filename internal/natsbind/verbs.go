package natsbind

import (
	"context"

	"github.com/casualjim/vshl/internal/capability"
	"github.com/casualjim/vshl/internal/fault"
	"github.com/tidwall/gjson"
)

func (b *Binding) loadVoiceAgentsConfig(ctx context.Context, data []byte) (any, error) {
	if len(data) == 0 {
		return nil, fault.Validation("no arguments supplied")
	}
	return nil, b.svc.LoadVoiceAgentsConfig(ctx, data)
}

func (b *Binding) startListening(ctx context.Context, _ []byte) (any, error) {
	id, err := b.svc.StartListening(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]string{"request_id": id}, nil
}

func (b *Binding) cancelListening(ctx context.Context, _ []byte) (any, error) {
	return nil, b.svc.CancelListening(ctx)
}

func (b *Binding) enumerateVoiceAgents(context.Context, []byte) (any, error) {
	return b.svc.EnumerateVoiceAgents(), nil
}

func (b *Binding) setDefaultVoiceAgent(ctx context.Context, data []byte) (any, error) {
	id, err := requiredString(data, "id")
	if err != nil {
		return nil, err
	}
	return nil, b.svc.SetDefaultVoiceAgent(ctx, id)
}

// subscribe: {"va_id": "...", "events": [...], "inbox": "..."}
func (b *Binding) subscribe(ctx context.Context, data []byte) (any, error) {
	inbox, err := requiredString(data, "inbox")
	if err != nil {
		return nil, err
	}
	agentID, err := requiredString(data, "va_id")
	if err != nil {
		return nil, err
	}
	events, err := stringList(data, "events")
	if err != nil {
		return nil, err
	}

	subs, err := b.svc.Subscribe(ctx, &inboxHook{nc: b.nc, inbox: inbox}, agentID, events)
	b.track(inbox, subs)
	if err != nil {
		return nil, err
	}
	return "Subscription to events successfully completed.", nil
}

// unsubscribe: {"inbox": "..."}
func (b *Binding) unsubscribe(_ context.Context, data []byte) (any, error) {
	inbox, err := requiredString(data, "inbox")
	if err != nil {
		return nil, err
	}
	subs, ok := b.clients[inbox]
	if !ok {
		return nil, fault.NotFound("no subscriptions for inbox %s", inbox)
	}
	for _, sub := range subs {
		sub.Unsubscribe()
	}
	delete(b.clients, inbox)
	return map[string]int{"unsubscribed": len(subs)}, nil
}

// <capability>Subscribe: {"actions": [...], "inbox": "..."}
func (b *Binding) capabilitySubscribe(kind capability.Kind) handler {
	return func(ctx context.Context, data []byte) (any, error) {
		inbox, err := requiredString(data, "inbox")
		if err != nil {
			return nil, err
		}
		actions, err := stringList(data, "actions")
		if err != nil {
			return nil, err
		}

		subs, err := b.svc.CapabilitySubscribe(ctx, &inboxHook{nc: b.nc, inbox: inbox}, kind, actions)
		b.track(inbox, subs)
		if err != nil {
			return nil, err
		}
		return "Subscription to " + kind.String() + " events successfully completed.", nil
	}
}

// <capability>Publish: {"action": "...", "payload": ...}
// A string payload is published as is, any other JSON value in its raw form.
func (b *Binding) capabilityPublish(kind capability.Kind) handler {
	return func(ctx context.Context, data []byte) (any, error) {
		action, err := requiredString(data, "action")
		if err != nil {
			return nil, err
		}
		payload := gjson.GetBytes(data, "payload")
		if !payload.Exists() {
			return nil, fault.Validation("payload is required")
		}

		raw := []byte(payload.Raw)
		if payload.Type == gjson.String {
			raw = []byte(payload.String())
		}
		if err := b.svc.CapabilityPublish(ctx, kind, action, raw); err != nil {
			return nil, err
		}
		return "Successfully published " + kind.String() + " messages.", nil
	}
}

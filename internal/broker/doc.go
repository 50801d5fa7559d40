// Package broker implements the named event channels the voice service publishes
// on: per-agent backend state channels ("voice_dialogstate_event#VA-001") and
// capability action channels ("phonecontrol/dial").
//
// Design decisions:
//   - Topic-based: every channel is a named topic, created lazily and cached by the broker
//   - Clean interfaces: Broker hands out Topics, Topics hand out Subscriptions
//   - Hook integration: subscribers are Hooks that receive Events
//   - Subscription management: explicit lifecycle with unique IDs and idempotent Unsubscribe
//   - Synchronous local delivery: the local broker calls hooks inline on the publishing
//     goroutine, over a snapshot of the subscriber set, matching the single dispatch
//     thread the service runs on
//
// Interface hierarchy:
//   - Broker: Top-level interface for accessing topics
//     └── Topic: Interface for publishing/subscribing to events
//     └── Subscription: Interface for managing subscriptions
//
// Two implementations are provided:
//   - Local: in-process fan-out, used by the daemon to reach subscribers it manages itself
//   - NATS: each topic is a NATS subject under a configurable prefix, so front-end
//     applications can listen to channels directly on the bus
//
// Example usage:
//
//	b := broker.Local()
//	topic := b.Topic(ctx, "voice_dialogstate_event#VA-001")
//
//	sub, err := topic.Subscribe(ctx, broker.HookFunc(func(ctx context.Context, e broker.Event) {
//	    slog.Info("dialog state", "payload", string(e.Payload))
//	}))
//	if err != nil {
//	    return err
//	}
//	defer sub.Unsubscribe()
//
//	err = topic.Publish(ctx, broker.NewEvent(topic.Name(), []byte(`{"va_id":"VA-001","state":"LISTENING"}`)))
package broker

package broker

import (
	"context"
	"errors"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var eventJSON = []byte(`{"type":"event"}`)

// ErrHookRequired is returned when subscribing without a hook.
var ErrHookRequired = errors.New("hook is required")

type Broker interface {
	Topic(ctx context.Context, name string) Topic
}

type Topic interface {
	Name() string
	Publish(context.Context, Event) error
	Subscribe(context.Context, Hook) (Subscription, error)
	// Subscribers reports the number of live subscriptions this process holds on the topic.
	Subscribers() int
}

type Subscription interface {
	ID() string
	Unsubscribe()
}

// Hook receives the events published on the topics it is subscribed to.
type Hook interface {
	OnEvent(context.Context, Event)
}

// HookFunc adapts a function to the Hook interface.
type HookFunc func(context.Context, Event)

func (f HookFunc) OnEvent(ctx context.Context, e Event) {
	f(ctx, e)
}

// Event is a named message with an opaque payload. Payloads are usually JSON
// but the broker does not require it.
type Event struct {
	Name      string
	Payload   []byte
	Timestamp time.Time
}

// NewEvent creates an event stamped with the current time.
func NewEvent(name string, payload []byte) Event {
	return Event{Name: name, Payload: payload, Timestamp: time.Now().UTC()}
}

// MarshalJSON renders the event as {"type":"event","event":...,"data":...,"timestamp":...}.
// JSON payloads are embedded as-is, anything else is carried as a string.
func (e Event) MarshalJSON() ([]byte, error) {
	result := eventJSON

	var err error
	result, err = sjson.SetBytes(result, "event", e.Name)
	if err != nil {
		return nil, err
	}

	if len(e.Payload) > 0 && gjson.ValidBytes(e.Payload) {
		result, err = sjson.SetRawBytes(result, "data", e.Payload)
	} else {
		result, err = sjson.SetBytes(result, "data", string(e.Payload))
	}
	if err != nil {
		return nil, err
	}

	if !e.Timestamp.IsZero() {
		result, err = sjson.SetBytes(result, "timestamp", e.Timestamp.Format(time.RFC3339Nano))
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (e *Event) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return errors.New("invalid JSON")
	}

	name := gjson.GetBytes(data, "event")
	if !name.Exists() {
		return errors.New("missing event name")
	}
	e.Name = name.String()

	switch payload := gjson.GetBytes(data, "data"); {
	case !payload.Exists():
		e.Payload = nil
	case payload.Type == gjson.String:
		e.Payload = []byte(payload.String())
	default:
		e.Payload = []byte(payload.Raw)
	}

	e.Timestamp = time.Time{}
	if ts := gjson.GetBytes(data, "timestamp"); ts.Exists() {
		parsed, err := time.Parse(time.RFC3339Nano, ts.String())
		if err != nil {
			return err
		}
		e.Timestamp = parsed
	}
	return nil
}

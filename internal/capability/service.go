package capability

import (
	"context"
	"log/slog"

	"github.com/casualjim/vshl/internal/broker"
	"github.com/casualjim/vshl/internal/fault"
	"github.com/casualjim/vshl/internal/registry"
	"github.com/casualjim/vshl/pkg/slogx"
	"github.com/fogfish/opts"
)

const loggerName = "vshl::capabilities::messaging"

// Recorder is told about every capability message that was published.
type Recorder interface {
	MessagePublished(capability, action, direction string)
}

type nopRecorder struct{}

func (nopRecorder) MessagePublished(string, string, string) {}

// WithRecorder sets the publish recorder.
var WithRecorder = opts.ForName[MessagingService, Recorder]("recorder")

// MessagingService keeps one MessageChannel per capability. Channels are created
// by the first subscription; publishing requires the channel to exist.
type MessagingService struct {
	broker   broker.Broker
	recorder Recorder
	channels registry.Registry[*MessageChannel]
}

func NewMessagingService(b broker.Broker, options ...opts.Option[MessagingService]) (*MessagingService, error) {
	if b == nil {
		return nil, fault.Validation("broker is required")
	}
	s := &MessagingService{
		broker:   b,
		channels: registry.New[*MessageChannel](),
	}
	if err := opts.Apply(s, options); err != nil {
		return nil, err
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	return s, nil
}

// Channel returns the channel of c, creating it on first use.
func (s *MessagingService) Channel(ctx context.Context, c *Capability) (*MessageChannel, error) {
	name, err := capabilityName(c)
	if err != nil {
		slog.ErrorContext(ctx, "cannot create message channel", slogx.LoggerName(loggerName), slogx.Error(err))
		return nil, err
	}
	ch, loaded := s.channels.GetOrAdd(name, func() *MessageChannel {
		return newMessageChannel(ctx, s.broker, c, s.recorder)
	})
	if !loaded {
		slog.InfoContext(ctx, "created message channel", slogx.LoggerName(loggerName), slogx.Capability(name))
	}
	return ch, nil
}

// HasChannel reports whether a channel exists for the capability called name.
func (s *MessagingService) HasChannel(name string) bool {
	_, ok := s.channels.Get(name)
	return ok
}

// Subscribe attaches hook to action of c.
func (s *MessagingService) Subscribe(ctx context.Context, hook broker.Hook, c *Capability, action string) (broker.Subscription, error) {
	ch, err := s.Channel(ctx, c)
	if err != nil {
		return nil, err
	}
	return ch.Subscribe(ctx, hook, action)
}

// Publish sends payload for action of c. It fails until something subscribed
// to c.
func (s *MessagingService) Publish(ctx context.Context, c *Capability, action string, payload []byte) error {
	name, err := capabilityName(c)
	if err != nil {
		slog.ErrorContext(ctx, "cannot publish message", slogx.LoggerName(loggerName), slogx.Error(err))
		return err
	}
	ch, ok := s.channels.Get(name)
	if !ok {
		slog.ErrorContext(ctx, "no message channel for capability", slogx.LoggerName(loggerName), slogx.Capability(name))
		return fault.State("no message channel for capability %s", name)
	}
	return ch.Publish(ctx, action, payload)
}

// Close drops all channels and the subscriptions made on them.
func (s *MessagingService) Close() {
	for _, name := range s.channels.Names() {
		if ch, ok := s.channels.Get(name); ok {
			ch.close()
		}
	}
	s.channels.Clear()
}

func capabilityName(c *Capability) (string, error) {
	if c == nil || c.Name() == "" {
		return "", fault.Validation("capability name is required")
	}
	return c.Name(), nil
}

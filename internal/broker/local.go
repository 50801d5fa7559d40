package broker

import (
	"context"
	"log/slog"
	"sync"

	"github.com/alphadose/haxmap"
	"github.com/casualjim/vshl/pkg/slogx"
	"github.com/casualjim/vshl/pkg/uuidx"
	"github.com/fogfish/opts"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type localBroker struct {
	topics *haxmap.Map[string, *localTopic]
	ids    uuidx.Generator
}

// WithSubscriptionIDs configures the generator used for subscription ids.
var WithSubscriptionIDs = opts.ForName[localBroker, uuidx.Generator]("ids")

// Local returns an in-process broker. Hooks run synchronously on the publisher's
// goroutine, in subscription order.
func Local(options ...opts.Option[localBroker]) Broker {
	b := &localBroker{
		topics: haxmap.New[string, *localTopic](),
	}
	if err := opts.Apply(b, options); err != nil {
		panic(err)
	}
	b.ids = uuidx.Or(b.ids)
	return b
}

func (b *localBroker) Topic(ctx context.Context, name string) Topic {
	topic, _ := b.topics.GetOrCompute(name, func() *localTopic {
		return &localTopic{
			name:          name,
			ids:           b.ids,
			subscriptions: orderedmap.New[string, *localSubscription](),
		}
	})
	return topic
}

type localTopic struct {
	name string
	ids  uuidx.Generator

	mu            sync.Mutex
	subscriptions *orderedmap.OrderedMap[string, *localSubscription]
}

func (t *localTopic) Name() string {
	return t.name
}

func (t *localTopic) Publish(ctx context.Context, event Event) error {
	// Hooks may subscribe or unsubscribe while being notified.
	for _, sub := range t.snapshot() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if sub.ctx.Err() != nil {
			sub.Unsubscribe()
			continue
		}
		sub.deliver(event)
	}
	return nil
}

func (t *localTopic) Subscribe(ctx context.Context, hook Hook) (Subscription, error) {
	if hook == nil {
		return nil, ErrHookRequired
	}

	id := t.ids()
	sub := &localSubscription{
		id:   id,
		ctx:  ctx,
		hook: hook,
	}
	sub.onClose = func() {
		t.mu.Lock()
		t.subscriptions.Delete(id)
		t.mu.Unlock()
	}

	t.mu.Lock()
	t.subscriptions.Set(id, sub)
	t.mu.Unlock()
	return sub, nil
}

func (t *localTopic) Subscribers() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.subscriptions.Len()
}

func (t *localTopic) snapshot() []*localSubscription {
	t.mu.Lock()
	defer t.mu.Unlock()

	subs := make([]*localSubscription, 0, t.subscriptions.Len())
	for pair := t.subscriptions.Oldest(); pair != nil; pair = pair.Next() {
		subs = append(subs, pair.Value)
	}
	return subs
}

type localSubscription struct {
	id        string
	ctx       context.Context
	hook      Hook
	closeOnce sync.Once
	onClose   func()
}

func (s *localSubscription) ID() string {
	return s.id
}

func (s *localSubscription) Unsubscribe() {
	s.closeOnce.Do(func() {
		if s.onClose != nil {
			s.onClose()
		}
	})
}

func (s *localSubscription) deliver(event Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(s.ctx, "subscriber hook panicked, dropping subscription",
				slogx.LoggerName("broker"),
				slogx.EventName(event.Name),
				slog.String("subscription", s.id),
				slog.Any("panic", r),
			)
			s.Unsubscribe()
		}
	}()
	s.hook.OnEvent(s.ctx, event)
}

package broker

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/alphadose/haxmap"
	"github.com/casualjim/vshl/pkg/slogx"
	"github.com/casualjim/vshl/pkg/uuidx"
	json "github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
)

// DefaultSubjectPrefix is the subject namespace NATS topics are published under.
const DefaultSubjectPrefix = "vshl.events"

type natsBroker struct {
	client *nats.Conn
	prefix string
	topics *haxmap.Map[string, *natsTopic]
}

// NATS returns a broker whose topics are subjects "<prefix>.<topic name>".
// An empty prefix selects DefaultSubjectPrefix.
func NATS(client *nats.Conn, prefix string) Broker {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &natsBroker{
		client: client,
		prefix: strings.TrimSuffix(prefix, "."),
		topics: haxmap.New[string, *natsTopic](),
	}
}

func (b *natsBroker) Topic(ctx context.Context, name string) Topic {
	top, _ := b.topics.GetOrCompute(name, func() *natsTopic {
		return &natsTopic{
			name:    name,
			subject: Subject(b.prefix, name),
			client:  b.client,
			subs:    haxmap.New[string, *natsSubscription](),
		}
	})
	return top
}

// Subject joins a prefix and a topic name into a NATS subject. Whitespace is not
// allowed in subject tokens so it is replaced by underscores.
func Subject(prefix, name string) string {
	name = strings.Join(strings.Fields(name), "_")
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

type natsTopic struct {
	name    string
	subject string
	client  *nats.Conn
	subs    *haxmap.Map[string, *natsSubscription]
}

func (t *natsTopic) Name() string {
	return t.name
}

func (t *natsTopic) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	eb, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return t.client.Publish(t.subject, eb)
}

func (t *natsTopic) Subscribe(ctx context.Context, hook Hook) (Subscription, error) {
	if hook == nil {
		return nil, ErrHookRequired
	}

	nsub, err := t.client.Subscribe(t.subject, func(msg *nats.Msg) {
		if ctx.Err() != nil {
			return
		}
		var event Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			slog.Error("failed to unmarshal event", slogx.Error(err), slog.String("subject", msg.Subject))
			return
		}
		hook.OnEvent(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	sub := &natsSubscription{
		id:  uuidx.NewString(),
		sub: nsub,
	}
	sub.onClose = func() { t.subs.Del(sub.id) }
	t.subs.Set(sub.id, sub)

	// Unsubscribe releases the watcher, so none outlives its subscription.
	sub.stopWatch = context.AfterFunc(ctx, sub.release)
	return sub, nil
}

func (t *natsTopic) Subscribers() int {
	return int(t.subs.Len())
}

type natsSubscription struct {
	id        string
	sub       *nats.Subscription
	once      sync.Once
	onClose   func()
	stopWatch func() bool
}

func (n *natsSubscription) ID() string {
	return n.id
}

func (n *natsSubscription) Unsubscribe() {
	if n.stopWatch != nil {
		n.stopWatch()
	}
	n.release()
}

func (n *natsSubscription) release() {
	n.once.Do(func() {
		if n.onClose != nil {
			n.onClose()
		}
		if n.sub == nil || !n.sub.IsValid() {
			return
		}
		if err := n.sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe", slogx.Error(err), slog.String("subscription", n.id))
		}
	})
}

// Package natsbind serves the voice service command surface over NATS and feeds
// it the state events voice agents publish.
//
// Verbs are request/reply subjects "<verbs>.<verb>", replies use the envelope
//
//	{"status":"success","response":...}
//	{"status":"failed","info":"...","code":"not_found"}
//
// Backend state events arrive on "<backend>.<event name>". Clients that
// subscribe name an inbox subject on which events are delivered.
package natsbind

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	vshl "github.com/casualjim/vshl"
	"github.com/casualjim/vshl/internal/broker"
	"github.com/casualjim/vshl/internal/capability"
	"github.com/casualjim/vshl/internal/fault"
	"github.com/casualjim/vshl/pkg/slogx"
	"github.com/fogfish/opts"
	json "github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	DefaultVerbPrefix    = "vshl"
	DefaultBackendPrefix = "vshl.backend"

	loggerName = "vshl::natsbind"
)

var (
	WithVerbPrefix    = opts.ForName[Binding, string]("verbPrefix")
	WithBackendPrefix = opts.ForName[Binding, string]("backendPrefix")
)

type handler func(ctx context.Context, data []byte) (any, error)

// Binding connects a Service to NATS. Every verb and backend event is handled
// under one lock, so the service sees one call at a time.
type Binding struct {
	nc            *nats.Conn
	svc           *vshl.Service
	verbPrefix    string
	backendPrefix string

	mu      sync.Mutex
	ctx     context.Context
	subs    []*nats.Subscription
	clients map[string][]broker.Subscription
}

func New(nc *nats.Conn, svc *vshl.Service, options ...opts.Option[Binding]) (*Binding, error) {
	if nc == nil || svc == nil {
		return nil, fault.Validation("nats connection and service are required")
	}
	b := &Binding{
		nc:            nc,
		svc:           svc,
		verbPrefix:    DefaultVerbPrefix,
		backendPrefix: DefaultBackendPrefix,
		clients:       make(map[string][]broker.Subscription),
	}
	if err := opts.Apply(b, options); err != nil {
		return nil, err
	}
	b.verbPrefix = strings.TrimSuffix(b.verbPrefix, ".")
	b.backendPrefix = strings.TrimSuffix(b.backendPrefix, ".")
	return b, nil
}

func (b *Binding) verbs() map[string]handler {
	verbs := map[string]handler{
		"loadVoiceAgentsConfig": b.loadVoiceAgentsConfig,
		"startListening":        b.startListening,
		"cancelListening":       b.cancelListening,
		"enumerateVoiceAgents":  b.enumerateVoiceAgents,
		"subscribe":             b.subscribe,
		"unsubscribe":           b.unsubscribe,
		"setDefaultVoiceAgent":  b.setDefaultVoiceAgent,
	}
	for _, kind := range capability.Kinds() {
		verbs[kind.String()+"Subscribe"] = b.capabilitySubscribe(kind)
		verbs[kind.String()+"Publish"] = b.capabilityPublish(kind)
	}
	return verbs
}

// VerbSubject returns the subject a verb is served on.
func (b *Binding) VerbSubject(verb string) string {
	return b.verbPrefix + "." + verb
}

// BackendSubject returns the subject voice agents publish event on.
func (b *Binding) BackendSubject(event string) string {
	return b.backendPrefix + "." + event
}

// Start subscribes to the verb and backend event subjects. ctx bounds the
// lifetime of the subscriptions clients make.
func (b *Binding) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctx != nil {
		return fault.State("binding already started")
	}
	b.ctx = ctx

	for verb, h := range b.verbs() {
		sub, err := b.nc.Subscribe(b.VerbSubject(verb), b.serveVerb(verb, h))
		if err != nil {
			b.unsubscribeAll()
			return err
		}
		b.subs = append(b.subs, sub)
	}

	sub, err := b.nc.Subscribe(b.backendPrefix+".*", b.serveBackendEvent)
	if err != nil {
		b.unsubscribeAll()
		return err
	}
	b.subs = append(b.subs, sub)

	slog.InfoContext(ctx, "serving voice service over nats",
		slogx.LoggerName(loggerName),
		slog.String("verbs", b.verbPrefix+".>"),
		slog.String("backend", b.backendPrefix+".*"),
	)
	return b.nc.Flush()
}

// Close stops serving and drops every client subscription.
func (b *Binding) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unsubscribeAll()
	for inbox, subs := range b.clients {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
		delete(b.clients, inbox)
	}
}

func (b *Binding) unsubscribeAll() {
	for _, sub := range b.subs {
		if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			slog.Warn("failed to unsubscribe", slogx.LoggerName(loggerName), slog.String("subject", sub.Subject), slogx.Error(err))
		}
	}
	b.subs = nil
}

func (b *Binding) serveVerb(verb string, h handler) nats.MsgHandler {
	return func(msg *nats.Msg) {
		b.mu.Lock()
		ctx := b.ctx
		response, err := h(ctx, msg.Data)
		b.mu.Unlock()

		if err != nil {
			slog.WarnContext(ctx, "verb failed", slogx.LoggerName(loggerName), slog.String("verb", verb), slogx.Error(err))
		}
		if msg.Reply == "" {
			return
		}
		if err := msg.Respond(reply(response, err)); err != nil {
			slog.ErrorContext(ctx, "failed to reply", slogx.LoggerName(loggerName), slog.String("verb", verb), slogx.Error(err))
		}
	}
}

func (b *Binding) serveBackendEvent(msg *nats.Msg) {
	event := strings.TrimPrefix(msg.Subject, b.backendPrefix+".")

	b.mu.Lock()
	ctx := b.ctx
	err := b.svc.HandleBackendEvent(ctx, event, msg.Data)
	b.mu.Unlock()

	if err != nil {
		slog.WarnContext(ctx, "backend event not handled", slogx.LoggerName(loggerName), slogx.EventName(event), slogx.Error(err))
	}
	if msg.Reply != "" {
		_ = msg.Respond(reply(nil, err))
	}
}

var (
	successReply = []byte(`{"status":"success"}`)
	failedReply  = []byte(`{"status":"failed"}`)
)

func reply(response any, err error) []byte {
	if err != nil {
		out, _ := sjson.SetBytes(failedReply, "info", err.Error())
		out, _ = sjson.SetBytes(out, "code", fault.Code(err))
		return out
	}
	if response == nil {
		return successReply
	}

	var raw []byte
	switch r := response.(type) {
	case json.RawMessage:
		raw = r
	default:
		var merr error
		if raw, merr = json.Marshal(response); merr != nil {
			return reply(nil, merr)
		}
	}
	out, serr := sjson.SetRawBytes(successReply, "response", raw)
	if serr != nil {
		return reply(nil, serr)
	}
	return out
}

// inboxHook forwards events to a client's inbox subject.
type inboxHook struct {
	nc    *nats.Conn
	inbox string
}

func (h *inboxHook) OnEvent(ctx context.Context, e broker.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode event", slogx.LoggerName(loggerName), slogx.EventName(e.Name), slogx.Error(err))
		return
	}
	if err := h.nc.Publish(h.inbox, data); err != nil {
		slog.ErrorContext(ctx, "failed to deliver event", slogx.LoggerName(loggerName), slogx.EventName(e.Name), slog.String("inbox", h.inbox), slogx.Error(err))
	}
}

func (b *Binding) track(inbox string, subs []broker.Subscription) {
	b.clients[inbox] = append(b.clients[inbox], subs...)
}

func stringList(data []byte, path string) ([]string, error) {
	v := gjson.GetBytes(data, path)
	if !v.IsArray() {
		return nil, fault.Validation("%s array is required", path)
	}
	var result []string
	for _, item := range v.Array() {
		result = append(result, item.String())
	}
	return result, nil
}

func requiredString(data []byte, path string) (string, error) {
	v := gjson.GetBytes(data, path)
	if !v.Exists() || v.String() == "" {
		return "", fault.Validation("%s is required", path)
	}
	return v.String(), nil
}

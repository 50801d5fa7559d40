// Package backend issues the outbound calls the voice service makes to voice
// agent bindings and to the platform's application manager.
//
// Calls are synchronous and never retried, but unlike the host framework they are
// always bounded: every call runs under a deadline so a backend that never answers
// cannot stall the dispatch thread.
package backend

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/casualjim/vshl/internal/fault"
	"github.com/casualjim/vshl/pkg/slogx"
	"github.com/fogfish/opts"
	json "github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/tidwall/gjson"
)

const (
	// DefaultTimeout bounds a backend call when no timeout is configured.
	DefaultTimeout = 5 * time.Second
	// DefaultSubjectPrefix is prepended to "<api>.<verb>" to form request subjects.
	DefaultSubjectPrefix = "afb"
)

// Verbs understood by voice agent bindings.
const (
	VerbStartListening           = "startListening"
	VerbCancel                   = "cancel"
	VerbSubscribe                = "subscribe"
	VerbStartSubscriptionProcess = "startSubscriptionProcess"
)

// Caller invokes verb on the binding identified by api. A nil error means the
// binding acknowledged the call.
type Caller interface {
	Call(ctx context.Context, api, verb string, args any) error
}

// CallerFunc adapts a function to the Caller interface.
type CallerFunc func(ctx context.Context, api, verb string, args any) error

func (f CallerFunc) Call(ctx context.Context, api, verb string, args any) error {
	return f(ctx, api, verb, args)
}

// Bounded wraps caller so that every call carries a deadline of at most timeout.
// A non-positive timeout selects DefaultTimeout.
func Bounded(caller Caller, timeout time.Duration) Caller {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return CallerFunc(func(ctx context.Context, api, verb string, args any) error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return caller.Call(ctx, api, verb, args)
	})
}

var (
	// WithTimeout sets the deadline applied to every request.
	WithTimeout = opts.ForName[NATSCaller, time.Duration]("timeout")
	// WithSubjectPrefix sets the subject namespace bindings listen on.
	WithSubjectPrefix = opts.ForName[NATSCaller, string]("prefix")
)

// NATSCaller performs calls as NATS request/reply on "<prefix>.<api>.<verb>".
// Replies follow the binding reply envelope: a reply whose "request.status" (or
// top level "status") is anything but "success", or that carries an "error"
// field, is a failed call.
type NATSCaller struct {
	client  *nats.Conn
	prefix  string
	timeout time.Duration
}

// NewNATSCaller creates a caller on top of an established connection.
func NewNATSCaller(client *nats.Conn, options ...opts.Option[NATSCaller]) (*NATSCaller, error) {
	if client == nil {
		return nil, errors.New("nats connection is required")
	}
	c := &NATSCaller{
		client:  client,
		prefix:  DefaultSubjectPrefix,
		timeout: DefaultTimeout,
	}
	if err := opts.Apply(c, options); err != nil {
		return nil, err
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	c.prefix = strings.TrimSuffix(c.prefix, ".")
	return c, nil
}

// Subject returns the request subject for api and verb.
func (c *NATSCaller) Subject(api, verb string) string {
	if c.prefix == "" {
		return api + "." + verb
	}
	return c.prefix + "." + api + "." + verb
}

func (c *NATSCaller) Call(ctx context.Context, api, verb string, args any) error {
	if api == "" {
		return fault.Validation("empty api for verb %s", verb)
	}

	data := []byte("null")
	if args != nil {
		var err error
		if data, err = json.Marshal(args); err != nil {
			return fault.Backend(api, verb, err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg, err := c.client.RequestWithContext(ctx, c.Subject(api, verb), data)
	if err != nil {
		return fault.Backend(api, verb, err)
	}
	if err := replyError(msg.Data); err != nil {
		slog.DebugContext(ctx, "backend rejected call",
			slogx.LoggerName("backend"),
			slog.String("api", api),
			slog.String("verb", verb),
			slogx.ByteString("reply", msg.Data),
		)
		return fault.Backend(api, verb, err)
	}
	return nil
}

func replyError(data []byte) error {
	if len(data) == 0 || !gjson.ValidBytes(data) {
		return nil
	}
	if e := gjson.GetBytes(data, "error"); e.Exists() && e.Type != gjson.Null && e.String() != "" {
		return errors.New(e.String())
	}
	status := gjson.GetBytes(data, "request.status")
	if !status.Exists() {
		status = gjson.GetBytes(data, "status")
	}
	if status.Exists() && status.String() != "success" {
		info := gjson.GetBytes(data, "request.info")
		if !info.Exists() {
			info = gjson.GetBytes(data, "info")
		}
		if info.String() != "" {
			return errors.New(status.String() + ": " + info.String())
		}
		return errors.New(status.String())
	}
	return nil
}

package request

import (
	"context"
	"log/slog"

	"github.com/casualjim/vshl/internal/backend"
	"github.com/casualjim/vshl/internal/fault"
	"github.com/casualjim/vshl/internal/voiceagent"
	"github.com/casualjim/vshl/pkg/slogx"
	"github.com/casualjim/vshl/pkg/uuidx"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Delegate tracks the requests in flight, at most one per voice agent, and the
// agent new requests go to.
type Delegate struct {
	caller   backend.Caller
	ids      uuidx.Generator
	recorder Recorder

	requests     *orderedmap.OrderedMap[string, *Request]
	defaultAgent *voiceagent.VoiceAgent
}

func newDelegate(caller backend.Caller, ids uuidx.Generator, recorder Recorder) *Delegate {
	return &Delegate{
		caller:   caller,
		ids:      uuidx.Or(ids),
		recorder: recorder,
		requests: orderedmap.New[string, *Request](),
	}
}

// StartRequestForVoiceAgent starts a new request on agent and returns its id.
// The request is tracked only when the backend accepted it.
func (d *Delegate) StartRequestForVoiceAgent(ctx context.Context, agent *voiceagent.VoiceAgent) (string, error) {
	if agent == nil {
		return "", fault.Validation("voice agent is required")
	}

	req := newRequest(d.caller, d.ids(), agent)
	if err := req.Start(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to start listening",
			slogx.LoggerName(loggerName),
			slogx.AgentID(agent.ID()),
			slogx.RequestID(req.ID()),
			slogx.Error(err),
		)
		d.recorder.RequestFailed(agent.ID())
		return "", err
	}

	d.requests.Set(agent.ID(), req)
	d.recorder.RequestStarted(agent.ID())
	return req.ID(), nil
}

// CancelAllRequests cancels every tracked request and forgets all of them,
// including those whose backend refused to cancel.
func (d *Delegate) CancelAllRequests(ctx context.Context) {
	for pair := d.requests.Oldest(); pair != nil; pair = pair.Next() {
		req := pair.Value
		if err := req.Cancel(ctx); err != nil {
			slog.WarnContext(ctx, "failed to cancel request",
				slogx.LoggerName(loggerName),
				slogx.AgentID(req.AgentID()),
				slogx.RequestID(req.ID()),
				slogx.Error(err),
			)
		}
		d.recorder.RequestCancelled(req.AgentID())
	}
	d.requests = orderedmap.New[string, *Request]()
}

// Requests returns the ids of the tracked requests keyed by voice agent id.
func (d *Delegate) Requests() map[string]string {
	result := make(map[string]string, d.requests.Len())
	for pair := d.requests.Oldest(); pair != nil; pair = pair.Next() {
		result[pair.Key] = pair.Value.ID()
	}
	return result
}

func (d *Delegate) SetDefaultVoiceAgent(agent *voiceagent.VoiceAgent) {
	d.defaultAgent = agent.Clone()
}

// DefaultVoiceAgent returns the agent new requests go to, nil when unset.
func (d *Delegate) DefaultVoiceAgent() *voiceagent.VoiceAgent {
	return d.defaultAgent
}

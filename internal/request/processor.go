// Package request runs voice recognition requests against the default voice agent.
//
// A Processor moves between two states, idle and listening. StartListening
// always cancels whatever is in flight, on every agent, before starting a new
// request on the default agent. Cancel returns to idle unconditionally.
package request

import (
	"context"
	"log/slog"

	"github.com/casualjim/vshl/internal/backend"
	"github.com/casualjim/vshl/internal/fault"
	"github.com/casualjim/vshl/internal/voiceagent"
	"github.com/casualjim/vshl/pkg/slogx"
	"github.com/casualjim/vshl/pkg/uuidx"
	"github.com/fogfish/opts"
)

const loggerName = "vshl::core::requests"

// Recorder is told about request lifecycle transitions.
type Recorder interface {
	RequestStarted(agentID string)
	RequestFailed(agentID string)
	RequestCancelled(agentID string)
}

type nopRecorder struct{}

func (nopRecorder) RequestStarted(string)   {}
func (nopRecorder) RequestFailed(string)    {}
func (nopRecorder) RequestCancelled(string) {}

var (
	// WithRequestIDs sets the generator for request tokens.
	WithRequestIDs = opts.ForName[Processor, uuidx.Generator]("ids")
	// WithRecorder sets the request lifecycle recorder.
	WithRecorder = opts.ForName[Processor, Recorder]("recorder")
)

type Processor struct {
	ids      uuidx.Generator
	recorder Recorder

	delegate *Delegate
	observer *agentsObserver
}

// New creates a processor that reaches voice agents through caller. Register
// Observer with the voice agent registry to follow default agent changes.
func New(caller backend.Caller, options ...opts.Option[Processor]) (*Processor, error) {
	if caller == nil {
		return nil, fault.Validation("backend caller is required")
	}
	p := &Processor{}
	if err := opts.Apply(p, options); err != nil {
		return nil, err
	}
	if p.recorder == nil {
		p.recorder = nopRecorder{}
	}
	p.delegate = newDelegate(caller, p.ids, p.recorder)
	p.observer = newAgentsObserver(p.delegate)
	return p, nil
}

// StartListening cancels all requests in flight and starts a new one on the
// default agent. It returns the new request id.
func (p *Processor) StartListening(ctx context.Context) (string, error) {
	agent := p.delegate.DefaultVoiceAgent()
	if agent == nil {
		slog.ErrorContext(ctx, "cannot start listening without a default voice agent", slogx.LoggerName(loggerName))
		p.recorder.RequestFailed("")
		return "", fault.State("no default voice agent")
	}

	p.delegate.CancelAllRequests(ctx)
	return p.delegate.StartRequestForVoiceAgent(ctx, agent)
}

// Cancel cancels all requests in flight.
func (p *Processor) Cancel(ctx context.Context) {
	p.delegate.CancelAllRequests(ctx)
}

// Observer returns the registry observer that tracks the default voice agent.
func (p *Processor) Observer() voiceagent.Observer {
	return p.observer
}

// Requests returns the ids of the requests in flight keyed by voice agent id.
func (p *Processor) Requests() map[string]string {
	return p.delegate.Requests()
}

// DefaultVoiceAgent returns the id of the agent new requests go to.
func (p *Processor) DefaultVoiceAgent() string {
	if agent := p.delegate.DefaultVoiceAgent(); agent != nil {
		return agent.ID()
	}
	return ""
}

// Close cancels everything in flight.
func (p *Processor) Close(ctx context.Context) {
	p.delegate.CancelAllRequests(ctx)
}

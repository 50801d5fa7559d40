package request

import (
	"context"

	"github.com/casualjim/vshl/internal/backend"
	"github.com/casualjim/vshl/internal/voiceagent"
)

// Request is one voice recognition session in flight on a voice agent.
type Request struct {
	id     string
	agent  *voiceagent.VoiceAgent
	caller backend.Caller
}

func newRequest(caller backend.Caller, id string, agent *voiceagent.VoiceAgent) *Request {
	return &Request{id: id, agent: agent, caller: caller}
}

func (r *Request) ID() string      { return r.id }
func (r *Request) AgentID() string { return r.agent.ID() }

// Start asks the agent's backend to start listening.
func (r *Request) Start(ctx context.Context) error {
	return r.caller.Call(ctx, r.agent.API(), backend.VerbStartListening, r.args())
}

// Cancel asks the agent's backend to abandon the session.
func (r *Request) Cancel(ctx context.Context) error {
	return r.caller.Call(ctx, r.agent.API(), backend.VerbCancel, r.args())
}

func (r *Request) args() map[string]string {
	return map[string]string{"request_id": r.id}
}

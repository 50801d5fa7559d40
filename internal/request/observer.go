package request

import (
	"context"
	"weak"

	"github.com/casualjim/vshl/internal/voiceagent"
)

// agentsObserver keeps the delegate's default agent in sync with the registry.
// It only holds a weak reference so a registry outliving the processor does
// not keep the delegate alive.
type agentsObserver struct {
	delegate weak.Pointer[Delegate]
}

func newAgentsObserver(d *Delegate) *agentsObserver {
	return &agentsObserver{delegate: weak.Make(d)}
}

func (o *agentsObserver) OnVoiceAgentsChange(_ context.Context, change voiceagent.Change) {
	if change.Kind != voiceagent.DefaultChanged {
		return
	}
	d := o.delegate.Value()
	if d == nil {
		return
	}
	d.SetDefaultVoiceAgent(change.Agent)
}

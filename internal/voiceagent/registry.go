package voiceagent

import (
	"context"
	"log/slog"
	"maps"
	"slices"

	"github.com/casualjim/vshl/internal/backend"
	"github.com/casualjim/vshl/internal/broker"
	"github.com/casualjim/vshl/internal/fault"
	"github.com/casualjim/vshl/pkg/slogx"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const loggerName = "vshl::voiceagents::registry"

// Registry owns the registered voice agents and the default agent selection.
//
// A Registry is not safe for concurrent use: it expects the single dispatch
// contract of the service, one entry point at a time. Observers run inline and
// may call back into the registry.
type Registry struct {
	agents    map[string]*VoiceAgent
	defaultID string

	observers *orderedmap.OrderedMap[Observer, struct{}]
	filter    *EventFilter
	caller    backend.Caller

	subscriptionsStarted bool
}

// NewRegistry creates an empty registry whose per agent event channels live on b
// and whose backend calls go through caller.
func NewRegistry(b broker.Broker, caller backend.Caller) *Registry {
	return &Registry{
		agents:    make(map[string]*VoiceAgent),
		observers: orderedmap.New[Observer, struct{}](),
		filter:    newEventFilter(b, caller),
		caller:    caller,
	}
}

// EventFilter returns the filter that routes backend events to agent channels.
func (r *Registry) EventFilter() *EventFilter {
	return r.filter
}

// AddNewVoiceAgent registers a new agent and creates its event channels.
func (r *Registry) AddNewVoiceAgent(ctx context.Context, spec Spec) error {
	agent, err := newVoiceAgent(spec)
	if err != nil {
		slog.ErrorContext(ctx, "invalid voice agent", slogx.LoggerName(loggerName), slogx.AgentID(spec.ID), slogx.Error(err))
		return err
	}
	if _, exists := r.agents[agent.id]; exists {
		slog.ErrorContext(ctx, "voice agent already exists", slogx.LoggerName(loggerName), slogx.AgentID(agent.id))
		return fault.Duplicate("voice agent %s", agent.id)
	}

	r.agents[agent.id] = agent
	r.notify(ctx, Change{Kind: Added, Agent: agent.Clone()})
	r.filter.CreateChannelsForAgent(ctx, agent.id)
	return nil
}

// RemoveVoiceAgent unregisters an agent and drops its event channels.
// Removing the default agent clears the default selection.
func (r *Registry) RemoveVoiceAgent(ctx context.Context, id string) error {
	agent, ok := r.agents[id]
	if !ok {
		slog.ErrorContext(ctx, "cannot remove unknown voice agent", slogx.LoggerName(loggerName), slogx.AgentID(id))
		return fault.NotFound("voice agent %s", id)
	}

	delete(r.agents, id)
	r.notify(ctx, Change{Kind: Removed, Agent: agent.Clone()})
	r.filter.RemoveChannelsForAgent(id)

	if r.defaultID == id {
		r.defaultID = ""
		r.notify(ctx, Change{Kind: DefaultChanged, Previous: id})
	}
	return nil
}

// ActivateVoiceAgents marks the agents active and returns how many of ids are
// registered, whether or not they were active already.
func (r *Registry) ActivateVoiceAgents(ctx context.Context, ids ...string) int {
	return r.setActive(ctx, true, ids)
}

// DeactivateVoiceAgents marks the agents inactive and returns how many of ids are
// registered, whether or not they were inactive already.
func (r *Registry) DeactivateVoiceAgents(ctx context.Context, ids ...string) int {
	return r.setActive(ctx, false, ids)
}

func (r *Registry) setActive(ctx context.Context, active bool, ids []string) int {
	if len(ids) == 0 || len(r.agents) == 0 {
		slog.WarnContext(ctx, "nothing to change activation for", slogx.LoggerName(loggerName), slog.Bool("active", active))
		return 0
	}

	seen := make(map[string]struct{}, len(ids))
	found := 0
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		agent, ok := r.agents[id]
		if !ok {
			continue
		}
		found++
		if agent.active == active {
			continue
		}
		agent.active = active
		r.notify(ctx, Change{Kind: ActivationChanged, Agent: agent.Clone()})
	}
	return found
}

// SetDefaultVoiceAgent selects the agent targeted by listening requests.
func (r *Registry) SetDefaultVoiceAgent(ctx context.Context, id string) error {
	if id == "" {
		return fault.Validation("voice agent id is required")
	}
	agent, ok := r.agents[id]
	if !ok {
		slog.ErrorContext(ctx, "cannot set default to unknown voice agent", slogx.LoggerName(loggerName), slogx.AgentID(id))
		return fault.NotFound("voice agent %s", id)
	}

	if r.defaultID == id {
		return nil
	}
	previous := r.defaultID
	r.defaultID = id
	r.notify(ctx, Change{Kind: DefaultChanged, Agent: agent.Clone(), Previous: previous, Current: id})
	return nil
}

// DefaultVoiceAgent returns the id of the default agent, empty when unset.
func (r *Registry) DefaultVoiceAgent() string {
	return r.defaultID
}

// SetActiveWakeword changes the agent's active wakeword to one of its wakewords.
func (r *Registry) SetActiveWakeword(ctx context.Context, id, wakeword string) error {
	agent, ok := r.agents[id]
	if !ok {
		return fault.NotFound("voice agent %s", id)
	}

	previous := agent.activeWakeword
	if err := agent.setActiveWakeword(wakeword); err != nil {
		slog.ErrorContext(ctx, "cannot set active wakeword", slogx.LoggerName(loggerName), slogx.AgentID(id), slogx.Error(err))
		return err
	}
	if previous != wakeword {
		r.notify(ctx, Change{Kind: WakewordChanged, Agent: agent.Clone(), Previous: previous, Current: wakeword})
	}
	return nil
}

// VoiceAgent returns a copy of the agent registered under id.
func (r *Registry) VoiceAgent(id string) (*VoiceAgent, bool) {
	agent, ok := r.agents[id]
	if !ok {
		return nil, false
	}
	return agent.Clone(), true
}

// VoiceAgents returns copies of all registered agents ordered by id.
func (r *Registry) VoiceAgents() []*VoiceAgent {
	ids := slices.Sorted(maps.Keys(r.agents))
	result := make([]*VoiceAgent, 0, len(ids))
	for _, id := range ids {
		result = append(result, r.agents[id].Clone())
	}
	return result
}

func (r *Registry) Len() int {
	return len(r.agents)
}

// SubscribeToEvent subscribes hook to event for the agent registered under id.
func (r *Registry) SubscribeToEvent(ctx context.Context, hook broker.Hook, event, id string) (broker.Subscription, error) {
	agent, ok := r.agents[id]
	if !ok {
		slog.ErrorContext(ctx, "cannot subscribe to events of unknown voice agent", slogx.LoggerName(loggerName), slogx.AgentID(id))
		return nil, fault.NotFound("voice agent %s", id)
	}
	return r.filter.Subscribe(ctx, hook, event, agent)
}

// StartSubscriptionProcess asks every registered agent's backend to start its
// capability subscriptions. Only the first call that reaches an agent has an
// effect.
func (r *Registry) StartSubscriptionProcess(ctx context.Context) {
	if r.subscriptionsStarted {
		return
	}
	for _, agent := range r.VoiceAgents() {
		if err := r.caller.Call(ctx, agent.API(), backend.VerbStartSubscriptionProcess, nil); err != nil {
			slog.WarnContext(ctx, "failed to start subscription process", slogx.LoggerName(loggerName), slogx.AgentID(agent.ID()), slogx.Error(err))
		}
		r.subscriptionsStarted = true
	}
}

// AddObserver registers o for change notifications. Adding the same observer
// twice has no effect.
func (r *Registry) AddObserver(o Observer) error {
	if o == nil {
		return fault.Validation("observer is required")
	}
	r.observers.Set(o, struct{}{})
	return nil
}

func (r *Registry) RemoveObserver(o Observer) error {
	if o == nil {
		return fault.Validation("observer is required")
	}
	r.observers.Delete(o)
	return nil
}

// Close drops all agents, channels and observers without notifying anyone.
func (r *Registry) Close() {
	r.observers = orderedmap.New[Observer, struct{}]()
	clear(r.agents)
	r.defaultID = ""
	r.filter.close()
}

func (r *Registry) notify(ctx context.Context, change Change) {
	observers := make([]Observer, 0, r.observers.Len())
	for pair := r.observers.Oldest(); pair != nil; pair = pair.Next() {
		observers = append(observers, pair.Key)
	}
	slog.DebugContext(ctx, "voice agents changed",
		slogx.LoggerName(loggerName),
		slogx.Stringer("change", change.Kind),
		slog.Int("observers", len(observers)),
	)
	for _, o := range observers {
		o.OnVoiceAgentsChange(ctx, change)
	}
}

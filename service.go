package vshl

import (
	"context"
	"log/slog"
	"time"

	"github.com/casualjim/vshl/internal/appctl"
	"github.com/casualjim/vshl/internal/backend"
	"github.com/casualjim/vshl/internal/broker"
	"github.com/casualjim/vshl/internal/capability"
	"github.com/casualjim/vshl/internal/config"
	"github.com/casualjim/vshl/internal/fault"
	"github.com/casualjim/vshl/internal/metrics"
	"github.com/casualjim/vshl/internal/request"
	"github.com/casualjim/vshl/internal/router"
	"github.com/casualjim/vshl/internal/voiceagent"
	"github.com/casualjim/vshl/pkg/slogx"
	"github.com/casualjim/vshl/pkg/uuidx"
	"github.com/fogfish/opts"
	"github.com/tidwall/gjson"
)

const loggerName = "vshl::service"

// Service is the application context: it owns every component of the voice
// service and exposes the command surface.
type Service struct {
	broker     broker.Broker
	caller     backend.Caller
	rpcTimeout time.Duration
	requestIDs uuidx.Generator
	metrics    *metrics.Recorder

	registry     *voiceagent.Registry
	router       *router.Router
	processor    *request.Processor
	launcher     *appctl.Controller
	capabilities *capability.Factory
	messaging    *capability.MessagingService
}

// New wires a Service. WithCaller is required.
func New(options ...Option) (*Service, error) {
	s := &Service{}
	if err := opts.Apply(s, options); err != nil {
		return nil, err
	}
	if s.caller == nil {
		return nil, fault.Validation("backend caller is required")
	}
	if s.broker == nil {
		s.broker = broker.Local()
	}

	caller := s.caller
	if s.metrics != nil {
		caller = s.metrics.InstrumentCaller(caller)
	}
	caller = backend.Bounded(caller, s.rpcTimeout)

	requestOpts := []opts.Option[request.Processor]{request.WithRequestIDs(uuidx.Or(s.requestIDs))}
	messagingOpts := []opts.Option[capability.MessagingService]{}
	if s.metrics != nil {
		requestOpts = append(requestOpts, request.WithRecorder(request.Recorder(s.metrics)))
		messagingOpts = append(messagingOpts, capability.WithRecorder(capability.Recorder(s.metrics)))
	}

	processor, err := request.New(caller, requestOpts...)
	if err != nil {
		return nil, err
	}
	messaging, err := capability.NewMessagingService(s.broker, messagingOpts...)
	if err != nil {
		return nil, err
	}

	s.processor = processor
	s.messaging = messaging
	s.registry = voiceagent.NewRegistry(s.broker, caller)
	s.router = router.New()
	s.launcher = appctl.New(caller)
	s.capabilities = capability.NewFactory(s.launcher)

	if err := s.registry.AddObserver(processor.Observer()); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		if err := s.registry.AddObserver(s.metrics); err != nil {
			return nil, err
		}
	}
	if err := s.router.AddFilter(s.registry.EventFilter()); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadVoiceAgents registers the agents of a parsed agents document and selects
// its default agent. Agents that fail to register are logged and skipped; a
// document without a default fails after the other agents were added. A
// default naming no registered agent is logged and leaves the default as is.
func (s *Service) LoadVoiceAgents(ctx context.Context, agents *config.Agents) error {
	if agents == nil {
		return fault.Validation("no voice agents supplied")
	}
	for _, spec := range agents.Specs {
		if err := s.registry.AddNewVoiceAgent(ctx, spec); err != nil {
			slog.WarnContext(ctx, "skipping voice agent", slogx.LoggerName(loggerName), slogx.AgentID(spec.ID), slogx.Error(err))
		}
	}
	if !agents.HasDefault {
		slog.ErrorContext(ctx, "no default agent found in voice agents config", slogx.LoggerName(loggerName))
		return fault.Validation("no default voice agent in config")
	}
	if err := s.registry.SetDefaultVoiceAgent(ctx, agents.Default); err != nil {
		slog.WarnContext(ctx, "default voice agent from config not applied",
			slogx.LoggerName(loggerName),
			slogx.AgentID(agents.Default),
			slogx.Error(err),
		)
	}
	return nil
}

// LoadVoiceAgentsConfig parses a JSON agents document and loads it.
func (s *Service) LoadVoiceAgentsConfig(ctx context.Context, data []byte) error {
	agents, err := config.ParseAgents(ctx, data)
	if err != nil {
		return err
	}
	return s.LoadVoiceAgents(ctx, agents)
}

// LoadVoiceAgentsFile reads a JSON or YAML agents document and loads it.
func (s *Service) LoadVoiceAgentsFile(ctx context.Context, path string) error {
	agents, err := config.ReadAgentsFile(ctx, path)
	if err != nil {
		return err
	}
	return s.LoadVoiceAgents(ctx, agents)
}

// HandleBackendEvent routes a state event sent by a voice agent. The payload
// must name the agent in its "va_id" field.
func (s *Service) HandleBackendEvent(ctx context.Context, event string, payload []byte) error {
	agentID := gjson.GetBytes(payload, "va_id")
	if !agentID.Exists() || agentID.String() == "" {
		slog.ErrorContext(ctx, "no voice agent id in backend event", slogx.LoggerName(loggerName), slogx.EventName(event))
		return fault.Validation("backend event %s has no va_id", event)
	}

	handled := s.router.HandleIncomingEvent(ctx, event, agentID.String(), payload)
	if s.metrics != nil {
		s.metrics.EventRouted(event, handled)
	}
	if !handled {
		return fault.NotFound("no handler for backend event %s", event)
	}
	return nil
}

// StartListening starts a voice recognition request on the default agent and
// returns its id.
func (s *Service) StartListening(ctx context.Context) (string, error) {
	s.registry.StartSubscriptionProcess(ctx)
	return s.processor.StartListening(ctx)
}

// CancelListening is accepted for compatibility and does nothing: sessions end
// when the backend reports so, or when the next StartListening replaces them.
func (s *Service) CancelListening(context.Context) error {
	return nil
}

// Enumeration lists the registered voice agents and the default agent.
type Enumeration struct {
	Agents  []voiceagent.Spec `json:"agents"`
	Default string            `json:"default"`
}

func (s *Service) EnumerateVoiceAgents() Enumeration {
	agents := s.registry.VoiceAgents()
	result := Enumeration{
		Agents:  make([]voiceagent.Spec, 0, len(agents)),
		Default: s.registry.DefaultVoiceAgent(),
	}
	for _, agent := range agents {
		result.Agents = append(result.Agents, agent.Spec())
	}
	return result
}

// Subscribe attaches hook to the listed state events of a voice agent. It stops
// at the first event that cannot be subscribed to; earlier subscriptions stay.
func (s *Service) Subscribe(ctx context.Context, hook broker.Hook, agentID string, events []string) ([]broker.Subscription, error) {
	s.registry.StartSubscriptionProcess(ctx)

	if len(events) == 0 {
		return nil, fault.Validation("no events to subscribe to")
	}
	subs := make([]broker.Subscription, 0, len(events))
	for _, event := range events {
		sub, err := s.registry.SubscribeToEvent(ctx, hook, event, agentID)
		if err != nil {
			slog.ErrorContext(ctx, "failed to subscribe to event", slogx.LoggerName(loggerName), slogx.EventName(event), slogx.AgentID(agentID), slogx.Error(err))
			return subs, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func (s *Service) SetDefaultVoiceAgent(ctx context.Context, id string) error {
	return s.registry.SetDefaultVoiceAgent(ctx, id)
}

// CapabilitySubscribe attaches hook to the listed actions of a capability. It
// stops at the first unknown action; earlier subscriptions stay.
func (s *Service) CapabilitySubscribe(ctx context.Context, hook broker.Hook, kind capability.Kind, actions []string) ([]broker.Subscription, error) {
	c, err := s.capabilities.Capability(kind)
	if err != nil {
		return nil, err
	}
	if len(actions) == 0 {
		return nil, fault.Validation("no actions to subscribe to")
	}

	subs := make([]broker.Subscription, 0, len(actions))
	for _, action := range actions {
		sub, err := s.messaging.Subscribe(ctx, hook, c, action)
		if err != nil {
			slog.ErrorContext(ctx, "failed to subscribe to action", slogx.LoggerName(loggerName), slogx.Capability(c.Name()), slogx.Action(action), slogx.Error(err))
			return subs, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// CapabilityPublish publishes payload for an action of a capability. Nothing
// can be published on a capability before something subscribed to it.
func (s *Service) CapabilityPublish(ctx context.Context, kind capability.Kind, action string, payload []byte) error {
	c, err := s.capabilities.Capability(kind)
	if err != nil {
		return err
	}
	if action == "" {
		return fault.Validation("action is required")
	}
	return s.messaging.Publish(ctx, c, action, payload)
}

// Close cancels all listening requests and releases every component.
func (s *Service) Close(ctx context.Context) {
	s.processor.Close(ctx)
	s.messaging.Close()
	s.registry.Close()
}

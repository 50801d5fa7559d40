/*
Package vshl is the voice service high level: it sits between voice recognition
backends ("voice agents") and the front-end applications of an in-vehicle
platform.

The service keeps the registry of known voice agents, routes the state events
those agents emit to per agent channels, runs voice recognition requests against
the default agent and moves capability messages (GUI metadata, phone control,
navigation) between agents and applications.

# Basic Usage

	svc, err := vshl.New(
		vshl.WithCaller(caller),
		vshl.WithBroker(broker.Local()),
	)
	if err != nil {
		return err
	}
	defer svc.Close(ctx)

	if err := svc.LoadVoiceAgentsFile(ctx, "agents.json"); err != nil {
		return err
	}

	requestID, err := svc.StartListening(ctx)

# Architecture

 1. Voice agents (internal/voiceagent)
    - Registry of agents, default selection and change observers
    - Event filter that owns the "<event>#<agentId>" channels

 2. Routing (internal/router)
    - Offers inbound backend events to the registered filters

 3. Requests (internal/request)
    - Idle/listening state machine over the default agent

 4. Capabilities (internal/capability)
    - Fixed action vocabularies and one message channel per capability
    - Application launch on selected upstream actions (internal/appctl)

 5. Transport (internal/broker, internal/backend, internal/natsbind)
    - In-process or NATS topics for events
    - NATS request/reply for outbound calls, always under a deadline
    - The command surface served over NATS

# Concurrency

A Service follows a single dispatch contract: one entry point runs at a time.
Transports that may call in concurrently, such as internal/natsbind, serialise
their calls. Observers and hooks run synchronously inside the call that
triggered them.

# Errors

Operations return errors wrapping the sentinels of internal/fault, so callers
can map them to a reply with errors.Is or fault.Code.
*/
package vshl

// Package metrics exposes the service's Prometheus metrics.
package metrics

import (
	"context"
	"time"

	"github.com/casualjim/vshl/internal/backend"
	"github.com/casualjim/vshl/internal/fault"
	"github.com/casualjim/vshl/internal/voiceagent"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vshl"

// Recorder counts what flows through the service. It is a voice agent
// registry observer, a request lifecycle recorder and a capability publish
// recorder at once.
type Recorder struct {
	routedEvents       *prometheus.CounterVec
	requests           *prometheus.CounterVec
	capabilityMessages *prometheus.CounterVec
	registryChanges    *prometheus.CounterVec
	backendCalls       *prometheus.HistogramVec
}

// New registers the service metrics with reg.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		routedEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_events_total",
			Help:      "Backend state events received, by event name and outcome",
		}, []string{"event", "outcome"}),

		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listening_requests_total",
			Help:      "Voice recognition requests, by voice agent and outcome",
		}, []string{"va_id", "outcome"}),

		capabilityMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capability_messages_total",
			Help:      "Capability messages published, by capability, action and direction",
		}, []string{"capability", "action", "direction"}),

		registryChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voiceagent_changes_total",
			Help:      "Voice agent registry changes, by kind",
		}, []string{"kind"}),

		backendCalls: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_call_duration_seconds",
			Help:      "Latency of outbound backend calls, by verb and result code",
			Buckets:   prometheus.DefBuckets,
		}, []string{"verb", "code"}),
	}
}

// EventRouted counts a backend event.
func (r *Recorder) EventRouted(event string, handled bool) {
	outcome := "handled"
	if !handled {
		outcome = "unhandled"
	}
	r.routedEvents.WithLabelValues(event, outcome).Inc()
}

func (r *Recorder) RequestStarted(agentID string) {
	r.requests.WithLabelValues(agentID, "started").Inc()
}

func (r *Recorder) RequestFailed(agentID string) {
	r.requests.WithLabelValues(agentID, "failed").Inc()
}

func (r *Recorder) RequestCancelled(agentID string) {
	r.requests.WithLabelValues(agentID, "cancelled").Inc()
}

func (r *Recorder) MessagePublished(capability, action, direction string) {
	r.capabilityMessages.WithLabelValues(capability, action, direction).Inc()
}

func (r *Recorder) OnVoiceAgentsChange(_ context.Context, change voiceagent.Change) {
	r.registryChanges.WithLabelValues(change.Kind.String()).Inc()
}

// InstrumentCaller times every call made through caller.
func (r *Recorder) InstrumentCaller(caller backend.Caller) backend.Caller {
	return backend.CallerFunc(func(ctx context.Context, api, verb string, args any) error {
		start := time.Now()
		err := caller.Call(ctx, api, verb, args)
		code := fault.Code(err)
		if code == "" {
			code = "ok"
		}
		r.backendCalls.WithLabelValues(verb, code).Observe(time.Since(start).Seconds())
		return err
	})
}

package vshl

import (
	"time"

	"github.com/casualjim/vshl/internal/backend"
	"github.com/casualjim/vshl/internal/broker"
	"github.com/casualjim/vshl/internal/metrics"
	"github.com/casualjim/vshl/pkg/uuidx"
	"github.com/fogfish/opts"
)

// Option configures a Service.
type Option = opts.Option[Service]

var (
	// WithBroker sets the broker carrying agent and capability events.
	// The default is an in-process broker.
	WithBroker = opts.ForName[Service, broker.Broker]("broker")

	// WithCaller sets how backend verbs are invoked. Required.
	WithCaller = opts.ForName[Service, backend.Caller]("caller")

	// WithRPCTimeout bounds every backend call. Non-positive values select
	// backend.DefaultTimeout.
	WithRPCTimeout = opts.ForName[Service, time.Duration]("rpcTimeout")

	// WithRequestIDs sets the generator for listening request tokens.
	WithRequestIDs = opts.ForName[Service, uuidx.Generator]("requestIDs")
)

// WithMetrics records service activity on m.
func WithMetrics(m *metrics.Recorder) Option {
	return opts.Type[Service](func(s *Service) error {
		s.metrics = m
		return nil
	})
}

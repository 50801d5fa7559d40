package metrics

import (
	"context"
	"strings"
	"testing"

	"github.com/casualjim/vshl/internal/backend"
	"github.com/casualjim/vshl/internal/fault"
	"github.com/casualjim/vshl/internal/voiceagent"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.EventRouted("voice_dialogstate_event", true)
	r.EventRouted("voice_dialogstate_event", true)
	r.EventRouted("voice_authstate_event", false)
	assert.Equal(t, 2.0, testutil.ToFloat64(r.routedEvents.WithLabelValues("voice_dialogstate_event", "handled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.routedEvents.WithLabelValues("voice_authstate_event", "unhandled")))

	r.RequestStarted("VA-001")
	r.RequestFailed("")
	r.RequestCancelled("VA-001")
	r.RequestCancelled("VA-001")
	assert.Equal(t, 1.0, testutil.ToFloat64(r.requests.WithLabelValues("VA-001", "started")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.requests.WithLabelValues("", "failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.requests.WithLabelValues("VA-001", "cancelled")))

	r.MessagePublished("phonecontrol", "phonecontrol/dial", "upstream")
	assert.Equal(t, 1.0, testutil.ToFloat64(r.capabilityMessages.WithLabelValues("phonecontrol", "phonecontrol/dial", "upstream")))

	r.OnVoiceAgentsChange(context.Background(), voiceagent.Change{Kind: voiceagent.Added})
	r.OnVoiceAgentsChange(context.Background(), voiceagent.Change{Kind: voiceagent.DefaultChanged})
	assert.Equal(t, 1.0, testutil.ToFloat64(r.registryChanges.WithLabelValues("added")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.registryChanges.WithLabelValues("default_changed")))

	err := testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP vshl_voiceagent_changes_total Voice agent registry changes, by kind
# TYPE vshl_voiceagent_changes_total counter
vshl_voiceagent_changes_total{kind="added"} 1
vshl_voiceagent_changes_total{kind="default_changed"} 1
`), "vshl_voiceagent_changes_total")
	require.NoError(t, err)
}

func TestInstrumentCaller(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	var fail error
	caller := r.InstrumentCaller(backend.CallerFunc(func(context.Context, string, string, any) error {
		return fail
	}))

	require.NoError(t, caller.Call(context.Background(), "api-1", backend.VerbStartListening, nil))
	fail = fault.Backend("api-1", backend.VerbCancel, nil)
	assert.ErrorIs(t, caller.Call(context.Background(), "api-1", backend.VerbCancel, nil), fault.ErrBackendCall)

	assert.Equal(t, 2, testutil.CollectAndCount(r.backendCalls))
}

func TestNewRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}

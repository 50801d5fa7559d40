package voiceagent

import (
	"testing"

	"github.com/casualjim/vshl/internal/fault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVoiceAgent(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Spec)
		wantErr error
	}{
		{"valid", func(*Spec) {}, nil},
		{"missing id", func(s *Spec) { s.ID = "" }, fault.ErrValidation},
		{"nil wakewords", func(s *Spec) { s.Wakewords = nil }, fault.ErrValidation},
		{"empty wakewords", func(s *Spec) { s.Wakewords = []string{} }, fault.ErrValidation},
		{"active wakeword not in set", func(s *Spec) { s.ActiveWakeword = "Salvor Hardin" }, fault.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := hariSeldon()
			tt.mutate(&spec)

			agent, err := newVoiceAgent(spec)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, agent)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, spec, agent.Spec())
		})
	}
}

func TestVoiceAgent(t *testing.T) {
	spec := hariSeldon()
	spec.Wakewords = []string{"Hari Seldon", "Cleon I", "Hari Seldon"}

	agent, err := newVoiceAgent(spec)
	require.NoError(t, err)

	t.Run("getters", func(t *testing.T) {
		assert.Equal(t, "VA-001", agent.ID())
		assert.Equal(t, "Foundation", agent.Name())
		assert.Equal(t, "Psychohistory powered assistant", agent.Description())
		assert.Equal(t, "api-1", agent.API())
		assert.Equal(t, "Terminus", agent.Vendor())
		assert.Equal(t, "Hari Seldon", agent.ActiveWakeword())
		assert.True(t, agent.IsActive())
	})

	t.Run("wakewords are a set", func(t *testing.T) {
		assert.Equal(t, []string{"Hari Seldon", "Cleon I"}, agent.Wakewords())
		assert.True(t, agent.HasWakeword("Cleon I"))
		assert.False(t, agent.HasWakeword("cleon i"))
	})

	t.Run("set active wakeword keeps invariant", func(t *testing.T) {
		c := agent.Clone()
		require.NoError(t, c.setActiveWakeword("Cleon I"))
		assert.Equal(t, "Cleon I", c.ActiveWakeword())

		err := c.setActiveWakeword("Salvor Hardin")
		assert.ErrorIs(t, err, fault.ErrValidation)
		assert.Equal(t, "Cleon I", c.ActiveWakeword())
	})

	t.Run("clones are independent", func(t *testing.T) {
		c := agent.Clone()
		ww := c.Wakewords()
		ww[0] = "changed"
		require.NoError(t, c.setActiveWakeword("Cleon I"))

		assert.Equal(t, "Hari Seldon", agent.ActiveWakeword())
		assert.Equal(t, []string{"Hari Seldon", "Cleon I"}, agent.Wakewords())
		assert.Nil(t, (*VoiceAgent)(nil).Clone())
	})
}

func TestEventNames(t *testing.T) {
	assert.Equal(t, []string{"voice_authstate_event", "voice_connectionstate_event", "voice_dialogstate_event"}, EventNames())
	assert.True(t, IsKnownEvent(EventDialogState))
	assert.False(t, IsKnownEvent("voice_unknown_event"))
	assert.Equal(t, "voice_dialogstate_event#VA-001", ChannelName(EventDialogState, "VA-001"))
}

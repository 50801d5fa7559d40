package capability

import (
	"context"
	"errors"
	"testing"

	"github.com/casualjim/vshl/internal/fault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type launch struct {
	Op      string
	Name    string
	Version string
}

type recordingLauncher struct {
	launches []launch
	startErr error
}

func (l *recordingLauncher) StartApp(_ context.Context, name, version string) error {
	l.launches = append(l.launches, launch{"start", name, version})
	return l.startErr
}

func (l *recordingLauncher) DisplayApp(_ context.Context, name, version string) error {
	l.launches = append(l.launches, launch{"display", name, version})
	return nil
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		name    string
		want    Kind
		wantErr bool
	}{
		{"guimetadata", GuiMetadata, false},
		{"phonecontrol", PhoneControl, false},
		{" Navigation ", Navigation, false},
		{"", 0, true},
		{"weather", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, err := ParseKind(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, fault.ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, k)
		})
	}

	assert.Equal(t, []Kind{GuiMetadata, PhoneControl, Navigation}, Kinds())
	assert.Empty(t, Kind(0).String())
}

func TestVocabularies(t *testing.T) {
	f := NewFactory(nil)

	gui := f.GuiMetadata()
	assert.Equal(t, "guimetadata", gui.Name())
	assert.Equal(t, []string{"render_template", "clear_template", "render_player_info", "clear_player_info"}, gui.Upstream())
	assert.Empty(t, gui.Downstream())

	phone := f.PhoneControl()
	assert.Equal(t, "phonecontrol", phone.Name())
	assert.Equal(t, []string{
		"phonecontrol/dial", "phonecontrol/redial", "phonecontrol/answer", "phonecontrol/stop", "phonecontrol/send_dtmf",
	}, phone.Upstream())
	assert.Equal(t, []string{
		"phonecontrol/connection_state_changed",
		"phonecontrol/call_state_changed",
		"phonecontrol/call_failed",
		"phonecontrol/caller_id_received",
		"phonecontrol/send_dtmf_succeeded",
	}, phone.Downstream())
	assert.True(t, phone.IsDownstream(PhoneCallFailed))
	assert.False(t, phone.IsUpstream(PhoneCallFailed))
	assert.True(t, phone.Supports(PhoneDial))
	assert.False(t, phone.Supports(SetDestination))

	nav := f.Navigation()
	assert.Equal(t, "navigation", nav.Name())
	assert.Equal(t, []string{"set_destination", "cancel_navigation"}, nav.Upstream())
	assert.Empty(t, nav.Downstream())

	up := nav.Upstream()
	up[0] = "changed"
	assert.Equal(t, SetDestination, nav.Upstream()[0])
}

func TestFactory(t *testing.T) {
	f := NewFactory(nil)

	c, err := f.Capability(PhoneControl)
	require.NoError(t, err)
	assert.Same(t, f.PhoneControl(), c)

	c, err = f.ByName("navigation")
	require.NoError(t, err)
	assert.Same(t, f.Navigation(), c)

	_, err = f.Capability(Kind(42))
	assert.ErrorIs(t, err, fault.ErrNotFound)
	_, err = f.ByName("weather")
	assert.ErrorIs(t, err, fault.ErrNotFound)
}

func TestOnMessagePublished(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		kind   Kind
		action string
		want   []launch
	}{
		{GuiMetadata, RenderTemplate, []launch{{"start", "ics-alexa-app", "0.1"}, {"display", "ics-alexa-app", "0.1"}}},
		{GuiMetadata, ClearTemplate, nil},
		{PhoneControl, PhoneDial, []launch{{"start", "phone", "0.1"}, {"display", "phone", "0.1"}}},
		{PhoneControl, PhoneAnswer, nil},
		{Navigation, SetDestination, []launch{{"start", "navigation", "0.1"}, {"display", "navigation", "0.1"}}},
		{Navigation, CancelNavigation, nil},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String()+"/"+tt.action, func(t *testing.T) {
			launcher := &recordingLauncher{}
			c, err := NewFactory(launcher).Capability(tt.kind)
			require.NoError(t, err)

			c.OnMessagePublished(ctx, tt.action)
			assert.Equal(t, tt.want, launcher.launches)
		})
	}

	t.Run("start failure still displays", func(t *testing.T) {
		launcher := &recordingLauncher{startErr: errors.New("afm down")}
		NewFactory(launcher).PhoneControl().OnMessagePublished(ctx, PhoneDial)
		assert.Len(t, launcher.launches, 2)
	})

	t.Run("no launcher", func(t *testing.T) {
		assert.NotPanics(t, func() {
			NewFactory(nil).PhoneControl().OnMessagePublished(ctx, PhoneDial)
		})
	})
}

package capability

import (
	"strings"

	"github.com/casualjim/vshl/internal/fault"
)

// Kind identifies one of the capabilities the service knows about. The set is
// closed, every Kind has a fixed vocabulary.
type Kind int

const (
	GuiMetadata Kind = iota + 1
	PhoneControl
	Navigation
)

var kinds = []Kind{GuiMetadata, PhoneControl, Navigation}

// Kinds returns every known capability kind.
func Kinds() []Kind {
	return append([]Kind(nil), kinds...)
}

func (k Kind) String() string {
	if v, ok := vocabularies[k]; ok {
		return v.name
	}
	return ""
}

// ParseKind resolves a capability name such as "phonecontrol".
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, k := range kinds {
		if vocabularies[k].name == name {
			return k, nil
		}
	}
	return 0, fault.NotFound("capability %q", name)
}

type app struct {
	name    string
	version string
}

type vocabulary struct {
	name       string
	upstream   []string
	downstream []string
	// publishing trigger upstream launches app
	trigger string
	app     app
}

// GUI metadata actions.
const (
	RenderTemplate   = "render_template"
	ClearTemplate    = "clear_template"
	RenderPlayerInfo = "render_player_info"
	ClearPlayerInfo  = "clear_player_info"
)

// Phone control actions.
const (
	PhoneDial     = "phonecontrol/dial"
	PhoneRedial   = "phonecontrol/redial"
	PhoneAnswer   = "phonecontrol/answer"
	PhoneStop     = "phonecontrol/stop"
	PhoneSendDTMF = "phonecontrol/send_dtmf"

	PhoneConnectionStateChanged = "phonecontrol/connection_state_changed"
	PhoneCallStateChanged       = "phonecontrol/call_state_changed"
	PhoneCallFailed             = "phonecontrol/call_failed"
	PhoneCallerIDReceived       = "phonecontrol/caller_id_received"
	PhoneSendDTMFSucceeded      = "phonecontrol/send_dtmf_succeeded"
)

// Navigation actions.
const (
	SetDestination   = "set_destination"
	CancelNavigation = "cancel_navigation"
)

var vocabularies = map[Kind]vocabulary{
	GuiMetadata: {
		name:     "guimetadata",
		upstream: []string{RenderTemplate, ClearTemplate, RenderPlayerInfo, ClearPlayerInfo},
		trigger:  RenderTemplate,
		app:      app{name: "ics-alexa-app", version: "0.1"},
	},
	PhoneControl: {
		name:     "phonecontrol",
		upstream: []string{PhoneDial, PhoneRedial, PhoneAnswer, PhoneStop, PhoneSendDTMF},
		downstream: []string{
			PhoneConnectionStateChanged,
			PhoneCallStateChanged,
			PhoneCallFailed,
			PhoneCallerIDReceived,
			PhoneSendDTMFSucceeded,
		},
		trigger: PhoneDial,
		app:     app{name: "phone", version: "0.1"},
	},
	Navigation: {
		name:     "navigation",
		upstream: []string{SetDestination, CancelNavigation},
		trigger:  SetDestination,
		app:      app{name: "navigation", version: "0.1"},
	},
}

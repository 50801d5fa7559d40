package voiceagent

import "slices"

// State events emitted by voice agent backends.
const (
	EventAuthState       = "voice_authstate_event"
	EventConnectionState = "voice_connectionstate_event"
	EventDialogState     = "voice_dialogstate_event"
)

var eventNames = []string{EventAuthState, EventConnectionState, EventDialogState}

// EventNames returns the backend state events every agent gets a channel for.
func EventNames() []string {
	return slices.Clone(eventNames)
}

// IsKnownEvent reports whether name is one of EventNames.
func IsKnownEvent(name string) bool {
	return slices.Contains(eventNames, name)
}

// ChannelName returns the name of the channel carrying event for one agent.
func ChannelName(event, agentID string) string {
	return event + "#" + agentID
}

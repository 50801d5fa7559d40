package voiceagent

import (
	"context"
	"sync"
)

type backendCall struct {
	API  string
	Verb string
}

type recordingCaller struct {
	mu    sync.Mutex
	calls []backendCall
	err   error
}

func (c *recordingCaller) Call(_ context.Context, api, verb string, _ any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, backendCall{API: api, Verb: verb})
	return c.err
}

func (c *recordingCaller) Calls() []backendCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]backendCall(nil), c.calls...)
}

type recordingObserver struct {
	changes []Change
	onEvent func(Change)
}

func (o *recordingObserver) OnVoiceAgentsChange(_ context.Context, change Change) {
	o.changes = append(o.changes, change)
	if o.onEvent != nil {
		o.onEvent(change)
	}
}

func (o *recordingObserver) kinds() []ChangeKind {
	kinds := make([]ChangeKind, 0, len(o.changes))
	for _, c := range o.changes {
		kinds = append(kinds, c.Kind)
	}
	return kinds
}

func hariSeldon() Spec {
	return Spec{
		ID:             "VA-001",
		Name:           "Foundation",
		Description:    "Psychohistory powered assistant",
		API:            "api-1",
		Vendor:         "Terminus",
		Wakewords:      []string{"Hari Seldon", "Cleon I"},
		ActiveWakeword: "Hari Seldon",
		Active:         true,
	}
}

func lordDornick() Spec {
	return Spec{
		ID:             "VA-002",
		Name:           "Trantor",
		Description:    "Imperial assistant",
		API:            "api-2",
		Vendor:         "Empire",
		Wakewords:      []string{"Gaal Dornick"},
		ActiveWakeword: "Gaal Dornick",
		Active:         false,
	}
}

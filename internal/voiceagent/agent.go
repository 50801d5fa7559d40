package voiceagent

import (
	"slices"

	"github.com/casualjim/vshl/internal/fault"
)

// Spec describes a voice agent to register.
type Spec struct {
	ID             string   `json:"id" yaml:"id"`
	Name           string   `json:"name" yaml:"name"`
	Description    string   `json:"description" yaml:"description"`
	API            string   `json:"api" yaml:"api"`
	Vendor         string   `json:"vendor" yaml:"vendor"`
	Wakewords      []string `json:"wakewords" yaml:"wakewords"`
	ActiveWakeword string   `json:"activewakeword" yaml:"activewakeword"`
	Active         bool     `json:"active" yaml:"active"`
}

// VoiceAgent is one registered voice recognition backend.
//
// The active wakeword is always a member of the wakeword set. Instances handed
// out by the registry are copies, mutating them has no effect on the registry.
type VoiceAgent struct {
	id             string
	name           string
	description    string
	api            string
	vendor         string
	wakewords      []string
	activeWakeword string
	active         bool
}

func newVoiceAgent(spec Spec) (*VoiceAgent, error) {
	if spec.ID == "" {
		return nil, fault.Validation("voice agent id is required")
	}

	wakewords := make([]string, 0, len(spec.Wakewords))
	for _, ww := range spec.Wakewords {
		if !slices.Contains(wakewords, ww) {
			wakewords = append(wakewords, ww)
		}
	}
	if len(wakewords) == 0 {
		return nil, fault.Validation("voice agent %s has no wakewords", spec.ID)
	}
	if !slices.Contains(wakewords, spec.ActiveWakeword) {
		return nil, fault.Validation("wakeword %q is not a wakeword of voice agent %s", spec.ActiveWakeword, spec.ID)
	}

	return &VoiceAgent{
		id:             spec.ID,
		name:           spec.Name,
		description:    spec.Description,
		api:            spec.API,
		vendor:         spec.Vendor,
		wakewords:      wakewords,
		activeWakeword: spec.ActiveWakeword,
		active:         spec.Active,
	}, nil
}

func (v *VoiceAgent) ID() string             { return v.id }
func (v *VoiceAgent) Name() string           { return v.name }
func (v *VoiceAgent) Description() string    { return v.description }
func (v *VoiceAgent) API() string            { return v.api }
func (v *VoiceAgent) Vendor() string         { return v.vendor }
func (v *VoiceAgent) ActiveWakeword() string { return v.activeWakeword }
func (v *VoiceAgent) IsActive() bool         { return v.active }

// Wakewords returns the agent's wakewords in configuration order.
func (v *VoiceAgent) Wakewords() []string {
	return slices.Clone(v.wakewords)
}

// HasWakeword reports whether ww is one of the agent's wakewords.
func (v *VoiceAgent) HasWakeword(ww string) bool {
	return slices.Contains(v.wakewords, ww)
}

// Spec returns the attributes of the agent in their registration form.
func (v *VoiceAgent) Spec() Spec {
	return Spec{
		ID:             v.id,
		Name:           v.name,
		Description:    v.description,
		API:            v.api,
		Vendor:         v.vendor,
		Wakewords:      slices.Clone(v.wakewords),
		ActiveWakeword: v.activeWakeword,
		Active:         v.active,
	}
}

func (v *VoiceAgent) Clone() *VoiceAgent {
	if v == nil {
		return nil
	}
	c := *v
	c.wakewords = slices.Clone(v.wakewords)
	return &c
}

func (v *VoiceAgent) setActiveWakeword(ww string) error {
	if !v.HasWakeword(ww) {
		return fault.Validation("wakeword %q is not a wakeword of voice agent %s", ww, v.id)
	}
	v.activeWakeword = ww
	return nil
}

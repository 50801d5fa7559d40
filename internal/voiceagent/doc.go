// Package voiceagent keeps track of the voice recognition backends known to the
// service.
//
// The Registry owns every VoiceAgent, the default agent selection and the
// observers interested in changes to either. Each registered agent gets one event
// channel per backend state event (see EventNames), named "<event>#<agentId>".
// Backend events enter through the EventFilter, which the service mounts on its
// router, and are republished on the matching channel.
//
//	reg := voiceagent.NewRegistry(broker.Local(), caller)
//	_ = reg.AddNewVoiceAgent(ctx, voiceagent.Spec{
//		ID:             "VA-001",
//		API:            "alexa-voiceagent",
//		Wakewords:      []string{"Alexa"},
//		ActiveWakeword: "Alexa",
//		Active:         true,
//	})
//	_ = reg.SetDefaultVoiceAgent(ctx, "VA-001")
//
// Change notifications are delivered synchronously, in observer registration
// order, from a snapshot of the observer set.
package voiceagent

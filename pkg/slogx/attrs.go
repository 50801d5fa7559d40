package slogx

import (
	"fmt"
	"log/slog"
)

// Error returns a slog.Attr representing the provided error.
// The attribute key is "error" and the value is the error's message.
// A nil error is rendered as an empty string so call sites never have to guard.
//
// Parameters:
//   - err: The error to be converted into a slog.Attr.
//
// Returns:
//   - slog.Attr: An attribute with the key "error" and the error's message as the value.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

// ByteString creates a slog.Attr with the given key and a string representation of the byte slice value.
// Event payloads travel as raw JSON bytes, this keeps them readable in the log output.
//
// Parameters:
//   - key: The key for the attribute.
//   - value: The byte slice to be converted to a string.
//
// Returns:
//
//	A slog.Attr containing the key and the string representation of the byte slice value.
func ByteString(key string, value []byte) slog.Attr {
	return slog.String(key, string(value))
}

// Stringer creates a slog.Attr with the provided key and the string representation
// of the given fmt.Stringer value.
func Stringer(key string, value fmt.Stringer) slog.Attr {
	return slog.String(key, value.String())
}

const (
	// KeyLoggerName is the key for the component that emitted the record.
	KeyLoggerName = "logger"
	// KeyError is the key used for error attributes.
	KeyError = "error"
	// KeyAgentID is the key for voice agent identifiers.
	KeyAgentID = "va_id"
	// KeyEventName is the key for event and channel names.
	KeyEventName = "event"
	// KeyAction is the key for capability actions.
	KeyAction = "action"
	// KeyCapability is the key for capability names.
	KeyCapability = "capability"
	// KeyRequestID is the key for voice recognition request tokens.
	KeyRequestID = "request_id"
)

// LoggerName creates a slog.Attr with the provided logger name.
// The attribute key is defined by KeyLoggerName.
//
// Parameters:
//   - name: The name of the logger.
//
// Returns:
//
//	A slog.Attr containing the logger name.
func LoggerName(name string) slog.Attr {
	return slog.String(KeyLoggerName, name)
}

// AgentID returns an attribute for a voice agent id.
func AgentID(id string) slog.Attr {
	return slog.String(KeyAgentID, id)
}

// EventName returns an attribute for an event or channel name.
func EventName(name string) slog.Attr {
	return slog.String(KeyEventName, name)
}

// Action returns an attribute for a capability action.
func Action(action string) slog.Attr {
	return slog.String(KeyAction, action)
}

// Capability returns an attribute for a capability name.
func Capability(name string) slog.Attr {
	return slog.String(KeyCapability, name)
}

// RequestID returns an attribute for a voice recognition request token.
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

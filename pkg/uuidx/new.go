package uuidx

import "github.com/google/uuid"

// Generator produces unique string tokens. Components that hand out ids
// (request tokens, subscription ids) accept one so tests can make ids predictable.
type Generator func() string

// New generates a new UUID using the version 7 format and returns it.
// It panics if the UUID generation fails.
func New() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// NewString generates a new UUID using the version 7 format and returns it as a string.
func NewString() string {
	return New().String()
}

// Or returns gen when it is set and NewString otherwise.
func Or(gen Generator) Generator {
	if gen == nil {
		return NewString
	}
	return gen
}

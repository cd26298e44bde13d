package core

import "errors"

var (
	// ErrMalformedResponse is returned when the LLM reply cannot be parsed as JSON
	ErrMalformedResponse = errors.New("malformed LLM response")
	// ErrIncompleteResponse is returned when the LLM reply parses but lacks required fields
	ErrIncompleteResponse = errors.New("incomplete LLM response")
)

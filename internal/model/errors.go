package model

import "errors"

// Common errors used across the application
var (
	// Message errors
	ErrMalformedMessage   = errors.New("malformed message")
	ErrUnknownMessageType = errors.New("unknown message type")
)

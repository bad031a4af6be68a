package model

import "encoding/json"

// MessageType is the discriminator carried in every wire message
type MessageType string

// Envelope is decoded first to dispatch on the message type
type Envelope struct {
	Type MessageType `json:"type"`
}

// DecodeEnvelope extracts the message type from a raw message
func DecodeEnvelope(data []byte) (MessageType, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", ErrMalformedMessage
	}
	if env.Type == "" {
		return "", ErrMalformedMessage
	}
	return env.Type, nil
}

// Decode unmarshals a typed message body
func Decode[T any](data []byte) (*T, error) {
	var msg T
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, ErrMalformedMessage
	}
	return &msg, nil
}

package api

import "github.com/google/uuid"

// NewRequestID returns a random id for the X-Request-ID header.
func NewRequestID() string {
	return uuid.NewString()
}

// NewClientID returns a random id identifying one client installation.
func NewClientID() string {
	return uuid.New().String()
}

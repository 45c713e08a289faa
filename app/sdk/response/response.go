// Package response wraps handler results in the success envelope.
package response

import (
	"encoding/json"
	"net/http"
)

// Envelope is the body of every successful response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`

	status int
}

// OK wraps data in a 200 response.
func OK(message string, data any) Envelope {
	return Envelope{
		Success: true,
		Message: message,
		Data:    data,
		status:  http.StatusOK,
	}
}

// Created wraps data in a 201 response.
func Created(message string, data any) Envelope {
	return Envelope{
		Success: true,
		Message: message,
		Data:    data,
		status:  http.StatusCreated,
	}
}

// Encode implements the encoder interface.
func (e Envelope) Encode() ([]byte, string, error) {
	data, err := json.Marshal(e)
	return data, "application/json", err
}

// HTTPStatus implements the web package httpStatus interface.
func (e Envelope) HTTPStatus() int {
	if e.status == 0 {
		return http.StatusOK
	}
	return e.status
}

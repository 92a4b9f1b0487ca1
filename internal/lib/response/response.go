// Package response defines the envelope every user operation returns.
//
// A Response is either a success carrying a typed payload or a failure
// carrying only a message. Both carry the HTTP status the handler writes,
// and both serialize to the same shape:
//
//	{"success": true, "message": "User found", "data": {...}, "statusCode": 200}
//	{"success": false, "message": "User not found", "data": null, "statusCode": 404}
package response

import (
	"encoding/json"
	"net/http"
)

// Response is a tagged success/failure value. The zero value is a failure
// with an empty message and status 0; use Success or Failure.
type Response[T any] struct {
	success bool
	message string
	payload T
	status  int
}

// Nothing is the payload of operations that succeed without data. It
// serializes as null.
type Nothing struct{}

func (Nothing) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// Success builds a successful response. The status defaults to 200.
func Success[T any](message string, payload T, status ...int) Response[T] {
	code := http.StatusOK
	if len(status) > 0 {
		code = status[0]
	}

	return Response[T]{
		success: true,
		message: message,
		payload: payload,
		status:  code,
	}
}

// Failure builds a failed response. Failures never carry a payload.
func Failure[T any](message string, status int) Response[T] {
	return Response[T]{
		message: message,
		status:  status,
	}
}

func (r Response[T]) Success() bool {
	return r.success
}

func (r Response[T]) Message() string {
	return r.message
}

// Payload returns the payload and true on success, the zero value and
// false on failure.
func (r Response[T]) Payload() (T, bool) {
	if !r.success {
		var zero T
		return zero, false
	}
	return r.payload, true
}

func (r Response[T]) StatusCode() int {
	return r.status
}

type envelope[T any] struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Data       *T     `json:"data"`
	StatusCode int    `json:"statusCode"`
}

// MarshalJSON writes the wire shape; data is null on failure.
func (r Response[T]) MarshalJSON() ([]byte, error) {
	out := envelope[T]{
		Success:    r.success,
		Message:    r.message,
		StatusCode: r.status,
	}
	if r.success {
		payload := r.payload
		out.Data = &payload
	}
	return json.Marshal(out)
}

// Package errs provides types and support related to web error functionality.
package errs

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
)

// GenericMessage is sent to the client in place of internal failures.
const GenericMessage = "Internal server error"

// Error represents an error in the system.
type Error struct {
	Code     ErrCode
	Message  string
	Fields   map[string]string
	FuncName string
	FileName string
}

// New constructs an error based on an app error. A FieldErrors value in the
// chain becomes the per field detail of the response. Wrapping an existing
// Error keeps its message and fields under the new code.
func New(code ErrCode, err error) *Error {
	pc, filename, line, _ := runtime.Caller(1)

	e := Error{
		Code:     code,
		Message:  err.Error(),
		FuncName: runtime.FuncForPC(pc).Name(),
		FileName: fmt.Sprintf("%s:%d", filename, line),
	}

	var ae *Error
	if errors.As(err, &ae) {
		e.Message = ae.Message
		e.Fields = ae.Fields
		return &e
	}

	var fe FieldErrors
	if errors.As(err, &fe) {
		e.Message = "validation failed"
		e.Fields = fe.Fields()
	}

	return &e
}

// Errorf constructs an error based on a error message.
func Errorf(code ErrCode, format string, v ...any) *Error {
	pc, filename, line, _ := runtime.Caller(1)

	return &Error{
		Code:     code,
		Message:  fmt.Sprintf(format, v...),
		FuncName: runtime.FuncForPC(pc).Name(),
		FileName: fmt.Sprintf("%s:%d", filename, line),
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Encode implements the encoder interface. The body is the unified failure
// envelope.
func (e *Error) Encode() ([]byte, string, error) {
	body := struct {
		Success bool              `json:"success"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields,omitempty"`
	}{
		Message: e.Message,
		Fields:  e.Fields,
	}

	data, err := json.Marshal(body)
	return data, "application/json", err
}

// HTTPStatus implements the web package httpStatus interface so the
// web framework can use the correct http status.
func (e *Error) HTTPStatus() int {
	if status, exists := httpStatus[e.Code]; exists {
		return status
	}

	return http.StatusInternalServerError
}

// Equal provides support for the go-cmp package and testing.
func (e *Error) Equal(e2 *Error) bool {
	return e.Code == e2.Code && e.Message == e2.Message
}

// IsError tests the concrete error is of the Error type.
func IsError(err error) bool {
	var er *Error
	return errors.As(err, &er)
}

// GetError returns a copy of the Error pointer.
func GetError(err error) *Error {
	var er *Error
	if !errors.As(err, &er) {
		return nil
	}
	return er
}

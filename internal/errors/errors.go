// Package errors is the error shape the HTTP API speaks.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jdholdren/newscat/internal/classify"
	"github.com/jdholdren/newscat/internal/newscat"
)

// Error is an error with the status it should be reported with.
type Error struct {
	Status  int
	Err     error // The error this wraps
	Details []Detail
}

type Detail struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s, details: %v", e.Status, e.Err, e.Details)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type transport struct {
	Message string   `json:"message"`
	Details []Detail `json:"details"`
	Status  int      `json:"status"`
}

func (e *Error) MarshalJSON() ([]byte, error) {
	msg := http.StatusText(e.Status)
	if e.Err != nil {
		msg = e.Err.Error()
	}

	return json.Marshal(transport{
		Message: msg,
		Details: e.Details,
		Status:  e.Status,
	})
}

func (e *Error) UnmarshalJSON(byts []byte) error {
	t := transport{}
	if err := json.Unmarshal(byts, &t); err != nil {
		return err
	}

	e.Err = errors.New(t.Message)
	e.Details = t.Details
	e.Status = t.Status
	return nil
}

// E builds an Error from its arguments: a string or error becomes the
// message, an int the status and any Detail is appended.
func E(args ...any) *Error {
	ret := &Error{
		Status:  http.StatusInternalServerError,
		Err:     nil,
		Details: nil,
	}

	for _, arg := range args {
		switch arg := arg.(type) {
		case string:
			ret.Err = errors.New(arg)
		case error:
			ret.Err = arg
		case int:
			ret.Status = arg
		case Detail:
			ret.Details = append(ret.Details, arg)
		case []Detail:
			ret.Details = append(ret.Details, arg...)
		}
	}

	return ret
}

// FromDomain picks the status for an error coming out of the store or the
// classifier. Internal detail is only exposed for client errors.
func FromDomain(err error) *Error {
	var e *Error
	switch {
	case errors.As(err, &e):
		return e
	case errors.Is(err, classify.ErrRateLimited):
		return E(http.StatusTooManyRequests, "classifier is rate limited, try again later")
	case errors.Is(err, newscat.ErrClassifierCallFailed):
		return E(http.StatusBadGateway, "classifier call failed")
	case errors.Is(err, newscat.ErrStoreCorrupt):
		return E(http.StatusServiceUnavailable, "store is unavailable")
	default:
		return E(http.StatusInternalServerError, "internal server error")
	}
}

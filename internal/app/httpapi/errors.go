package httpapi

import (
	"errors"

	"github.com/R3E-Network/user_service/internal/app/services/users"
	"github.com/R3E-Network/user_service/internal/rawhttp"
)

var (
	// ErrClientInput covers a malformed body or a non-numeric identifier.
	ErrClientInput = errors.New("invalid client input")
	// ErrNotFound means no user matched, non-positive ids included.
	ErrNotFound = errors.New("user not found")
	// ErrUnmatched means no route accepted the request.
	ErrUnmatched = errors.New("no matching route")
	// ErrEncode means a result could not be serialized.
	ErrEncode = errors.New("response encoding failed")
)

// failure carries the body shown to the client alongside the errors that
// decide the status code.
type failure struct {
	message string
	errs    []error
}

func fail(message string, errs ...error) error {
	return &failure{message: message, errs: errs}
}

func (f *failure) Error() string {
	if cause := errors.Join(f.errs...); cause != nil {
		return f.message + ": " + cause.Error()
	}
	return f.message
}

func (f *failure) Unwrap() []error { return f.errs }

// statusRule maps one error kind to a status. A non-empty message replaces
// the route's own failure text.
type statusRule struct {
	kind    error
	status  rawhttp.Status
	message string
}

// statusTable is the single translation from error kind to status code.
// Validation failures surface as 500 unless validationBadRequest is set.
func statusTable(validationBadRequest bool) []statusRule {
	validation := rawhttp.StatusInternalError
	if validationBadRequest {
		validation = rawhttp.StatusBadRequest
	}
	return []statusRule{
		{kind: ErrClientInput, status: rawhttp.StatusBadRequest},
		{kind: ErrNotFound, status: rawhttp.StatusNotFound},
		{kind: ErrUnmatched, status: rawhttp.StatusNotFound},
		{kind: users.ErrValidation, status: validation},
		{kind: users.ErrServiceLock, status: rawhttp.StatusInternalError, message: "Service lock error"},
		{kind: users.ErrStore, status: rawhttp.StatusInternalError},
		{kind: ErrEncode, status: rawhttp.StatusInternalError},
	}
}

// translate turns err into a response using the router's table. Errors that
// match no rule are internal errors.
func translate(table []statusRule, err error) rawhttp.Response {
	message := "Service error"
	var f *failure
	if errors.As(err, &f) {
		message = f.message
	}
	for _, rule := range table {
		if errors.Is(err, rule.kind) {
			if rule.message != "" {
				message = rule.message
			}
			return rawhttp.Response{Status: rule.status, Body: message}
		}
	}
	return rawhttp.Response{Status: rawhttp.StatusInternalError, Body: message}
}

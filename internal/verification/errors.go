package verification

import (
	"errors"
	"fmt"
	"net/http"
)

// FaultKind classifies where in the pipeline a verification call failed.
type FaultKind string

const (
	FaultBadRequest FaultKind = "bad_request"
	FaultNotFound   FaultKind = "not_found"
	FaultStorage    FaultKind = "storage_error"
	FaultGateway    FaultKind = "gateway_error"
	FaultDatabase   FaultKind = "db_error"
	FaultInternal   FaultKind = "internal_error"
)

// Fault wraps a pipeline error with its classification so the HTTP boundary
// can map it to a status code without inspecting error strings.
type Fault struct {
	Kind FaultKind
	Err  error
}

func (f *Fault) Error() string {
	return f.Err.Error()
}

func (f *Fault) Unwrap() error {
	return f.Err
}

func badRequest(format string, args ...any) error {
	return &Fault{Kind: FaultBadRequest, Err: fmt.Errorf(format, args...)}
}

func notFound(format string, args ...any) error {
	return &Fault{Kind: FaultNotFound, Err: fmt.Errorf(format, args...)}
}

func storageFault(err error) error {
	return &Fault{Kind: FaultStorage, Err: fmt.Errorf("storage error: %w", err)}
}

func gatewayFault(err error) error {
	return &Fault{Kind: FaultGateway, Err: err}
}

func databaseFault(err error) error {
	return &Fault{Kind: FaultDatabase, Err: fmt.Errorf("database error: %w", err)}
}

// HTTPStatus maps a verification error to a response status. Unclassified
// errors are treated as internal.
func HTTPStatus(err error) int {
	var fault *Fault
	if !errors.As(err, &fault) {
		return http.StatusInternalServerError
	}
	switch fault.Kind {
	case FaultBadRequest:
		return http.StatusBadRequest
	case FaultNotFound:
		return http.StatusNotFound
	case FaultGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

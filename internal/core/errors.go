package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Upstream service names used in UpstreamError.
const (
	ServiceSheets   = "sheets"
	ServiceCommerce = "commerce"
	ServiceDrive    = "drive"
)

// ConfigError reports a required setting that is absent or unusable.
type ConfigError struct {
	Name   string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("configuration error: %s: %s", e.Name, e.Reason)
	}
	return fmt.Sprintf("configuration error: %s is required", e.Name)
}

// SchemaError reports an expected column missing from a sheet.
type SchemaError struct {
	Sheet  string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: column %q not found in %s", e.Column, e.Sheet)
}

// UpstreamError wraps a failed call to an external collaborator. Status is
// the upstream HTTP status when one was received.
type UpstreamError struct {
	Service string
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream %s: %s: status %d: %s", e.Service, e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("upstream %s: %s: %s", e.Service, e.Op, e.Message)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// statusCoder is implemented by collaborator errors that carry an HTTP status.
type statusCoder interface {
	HTTPStatus() int
}

// WrapUpstream converts a collaborator failure into an UpstreamError.
// Context errors and errors that are already typed pass through unchanged.
func WrapUpstream(service, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	out := &UpstreamError{Service: service, Op: op, Message: err.Error(), Err: err}
	var sc statusCoder
	if errors.As(err, &sc) {
		out.Status = sc.HTTPStatus()
	}
	return out
}

// HTTPStatus maps an error to the status a feed endpoint should return.
// Configuration and schema errors are server faults; upstream failures are
// reported as a bad gateway.
func HTTPStatus(err error) int {
	var (
		cfgErr      *ConfigError
		schemaErr   *SchemaError
		upstreamErr *UpstreamError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &upstreamErr):
		return http.StatusBadGateway
	case errors.As(err, &cfgErr), errors.As(err, &schemaErr):
		return http.StatusInternalServerError
	case errors.Is(err, ErrTooManyBuilds):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

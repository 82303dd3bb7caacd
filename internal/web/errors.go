package web

// errors.go provides unified error response handling for the web layer.
//
// It ensures all errors are:
//   - Logged with full technical details for debugging (server-side)
//   - Returned to clients as user-friendly messages with a support code
//   - Formatted as JSON for feed and API routes, HTML for operator pages
//
// The error flow:
//  1. Handler receives an error from the feed service
//  2. Calls respondError(w, r, err), or respondErrorPage for HTML pages
//  3. Status comes from core.HTTPStatus, the message from core.MapError
//  4. Technical error + context is logged with request ID for correlation

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/feedsync/internal/core"
	"github.com/JonMunkholm/feedsync/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string        `json:"error"`
	Message string        `json:"message"`
	Action  string        `json:"action,omitempty"`
	Code    string        `json:"code"`
	Details *ErrorDetails `json:"details,omitempty"`
}

// ErrorDetails carries what the upstream service reported. Credentials never
// reach these fields.
type ErrorDetails struct {
	Service        string `json:"service,omitempty"`
	UpstreamStatus int    `json:"upstreamStatus,omitempty"`
	Column         string `json:"column,omitempty"`
	Setting        string `json:"setting,omitempty"`
}

// respondError logs err and writes the JSON error body.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := core.HTTPStatus(err)
	msg := s.logError(r, err, status)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	writeJSONBody(w, ErrorResponse{
		Error:   http.StatusText(status),
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
		Details: errorDetails(err),
	})
}

// respondErrorPage logs err and renders the HTML error page.
func (s *Server) respondErrorPage(w http.ResponseWriter, r *http.Request, err error) {
	status := core.HTTPStatus(err)
	msg := s.logError(r, err, status)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if rerr := templates.ErrorPage(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); rerr != nil {
		slog.Error("render error page", "error", rerr)
	}
}

func (s *Server) logError(r *http.Request, err error, status int) core.UserMessage {
	msg := core.MapError(err)
	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)
	return msg
}

func errorDetails(err error) *ErrorDetails {
	var (
		upstream *core.UpstreamError
		schema   *core.SchemaError
		cfg      *core.ConfigError
	)
	switch {
	case errors.As(err, &upstream):
		return &ErrorDetails{Service: upstream.Service, UpstreamStatus: upstream.Status}
	case errors.As(err, &schema):
		return &ErrorDetails{Column: schema.Column}
	case errors.As(err, &cfg):
		return &ErrorDetails{Setting: cfg.Name}
	default:
		return nil
	}
}

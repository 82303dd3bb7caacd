// Package core provides the feed-generation engine: control map parsing,
// value normalization, offer and stock feed assembly, and inventory
// reconciliation.
//
// # Error Codes Reference
//
// This file defines user-facing error messages with codes for support reference.
// Marketplace operators can quote the code from a failed feed response so the
// cause can be found quickly in the logs.
//
// # Configuration and Schema Errors (CFG001, SCH001)
//
//	CFG001 - Configuration error: A required setting is missing
//	         Action: Set the named environment variable and restart
//	         Matched by: *ConfigError
//
//	SCH001 - Schema error: An expected sheet column is missing
//	         Action: Check the column headers of the named sheet
//	         Matched by: *SchemaError
//
// # Upstream Errors (UPS001-UPS099)
//
//	UPS001 - Spreadsheet unavailable: Reading a sheet range failed
//	         Action: Check sheet sharing and range names
//	         Matched by: *UpstreamError with Service "sheets"
//
//	UPS002 - Commerce unavailable: The inventory lookup failed
//	         Action: Check the store API token and site ID
//	         Matched by: *UpstreamError with Service "commerce"
//
//	UPS003 - Drive unavailable: Publishing the feed file failed
//	         Action: Check the service account's Drive access
//	         Matched by: *UpstreamError with Service "drive"
//
// # Capacity Errors (BLD001)
//
//	BLD001 - Too many builds: Every feed build slot is busy
//	         Action: Retry in a few seconds
//	         Matched by: ErrTooManyBuilds
//
// # History Errors (HIS001)
//
//	HIS001 - History unavailable: The feed build history could not be read
//	         Action: Check the database connection
//	         Patterns: "feed_builds"
//
// # Request Errors (REQ001-REQ002)
//
//	REQ001 - Request cancelled
//	         Patterns: "context canceled"
//
//	REQ002 - Request timed out
//	         Patterns: "context deadline exceeded"
//
// # Default Error (ERR000)
//
// Fallback when no typed error or pattern matches:
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Matching
//
// Typed errors are checked first with errors.As. Remaining errors are matched
// case-insensitively against the pattern list using strings.Contains; the
// first matching pattern wins.
package core

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	configMessage = UserMessage{
		Message: "A required setting is missing",
		Action:  "Set the named environment variable and restart",
		Code:    "CFG001",
	}
	schemaMessage = UserMessage{
		Message: "An expected sheet column is missing",
		Action:  "Check the column headers of the named sheet",
		Code:    "SCH001",
	}
	busyMessage = UserMessage{
		Message: "Every feed build slot is busy",
		Action:  "Retry in a few seconds",
		Code:    "BLD001",
	}
	upstreamMessages = map[string]UserMessage{
		ServiceSheets: {
			Message: "Reading the spreadsheet failed",
			Action:  "Check sheet sharing and range names",
			Code:    "UPS001",
		},
		ServiceCommerce: {
			Message: "The inventory lookup failed",
			Action:  "Check the store API token and site ID",
			Code:    "UPS002",
		},
		ServiceDrive: {
			Message: "Publishing the feed file failed",
			Action:  "Check the service account's Drive access",
			Code:    "UPS003",
		},
	}
)

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user
// messages for errors that carry no type. Order matters.
var errorPatterns = []errorPattern{
	{
		pattern: "feed_builds",
		msg: UserMessage{
			Message: "The feed build history could not be read",
			Action:  "Check the database connection",
			Code:    "HIS001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Please try again later",
			Code:    "REQ002",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	msg := MapError(&SchemaError{Sheet: "Import", Column: "SKU"})
//	// msg.Code == "SCH001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var (
		cfgErr      *ConfigError
		schemaErr   *SchemaError
		upstreamErr *UpstreamError
	)
	switch {
	case errors.As(err, &cfgErr):
		return configMessage
	case errors.As(err, &schemaErr):
		return schemaMessage
	case errors.As(err, &upstreamErr):
		if msg, ok := upstreamMessages[upstreamErr.Service]; ok {
			return msg
		}
	case errors.Is(err, ErrTooManyBuilds):
		return busyMessage
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

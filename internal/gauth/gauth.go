// Package gauth builds HTTP clients authorized as a Google service account.
package gauth

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/sheets/v4"
)

// Scopes requested for the service account: read-only spreadsheet access
// and file access for publishing the offer feed.
var Scopes = []string{
	sheets.SpreadsheetsReadonlyScope,
	drive.DriveScope,
}

// NewClient returns an HTTP client that signs requests with the service
// account described by keyJSON. Tokens are fetched and refreshed on demand.
func NewClient(ctx context.Context, keyJSON string) (*http.Client, error) {
	if keyJSON == "" {
		return nil, fmt.Errorf("service account key is empty")
	}
	cfg, err := google.JWTConfigFromJSON([]byte(keyJSON), Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse service account key: %w", err)
	}
	return cfg.Client(ctx), nil
}

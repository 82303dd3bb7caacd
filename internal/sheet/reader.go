package sheet

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Reader fetches named spreadsheet ranges. A range without data yields an
// empty Table, never an error.
type Reader interface {
	GetRange(ctx context.Context, rangeName string) (Table, error)
}

// RangeError describes a failed range read. Status is the upstream HTTP
// status when one was received, 0 for transport failures.
type RangeError struct {
	Range   string
	Status  int
	Message string
	Err     error
}

func (e *RangeError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("read range %q: status %d: %s", e.Range, e.Status, e.Message)
	}
	return fmt.Sprintf("read range %q: %s", e.Range, e.Message)
}

func (e *RangeError) Unwrap() error { return e.Err }

// HTTPStatus returns the upstream status code.
func (e *RangeError) HTTPStatus() int { return e.Status }

// GoogleReader reads ranges from one Google spreadsheet.
type GoogleReader struct {
	svc           *sheets.Service
	spreadsheetID string
	renderOption  string
}

// NewGoogleReader builds a reader over an authorized HTTP client.
// renderOption is a Sheets ValueRenderOption; empty means FORMATTED_VALUE.
func NewGoogleReader(ctx context.Context, client *http.Client, spreadsheetID, renderOption string) (*GoogleReader, error) {
	svc, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	if renderOption == "" {
		renderOption = "FORMATTED_VALUE"
	}
	return &GoogleReader{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		renderOption:  renderOption,
	}, nil
}

// GetRange implements Reader.
func (r *GoogleReader) GetRange(ctx context.Context, rangeName string) (Table, error) {
	resp, err := r.svc.Spreadsheets.Values.Get(r.spreadsheetID, rangeName).
		ValueRenderOption(r.renderOption).
		Context(ctx).
		Do()
	if err != nil {
		rerr := &RangeError{Range: rangeName, Message: err.Error(), Err: err}
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			rerr.Status = gerr.Code
			rerr.Message = gerr.Message
		}
		return Table{}, rerr
	}
	return FromValues(resp.Values), nil
}

// FromValues converts a decoded values grid into a Table.
func FromValues(values [][]interface{}) Table {
	t := Table{Rows: make([]Row, 0, len(values))}
	for _, raw := range values {
		row := make(Row, len(raw))
		for i, v := range raw {
			row[i] = FromValue(v)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Package publish uploads rendered feeds to Google Drive.
package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/JonMunkholm/feedsync/internal/core"
)

const xmlMimeType = "application/xml"

var _ core.Publisher = (*DrivePublisher)(nil)

// Error is a failed Drive call.
type Error struct {
	Op     string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("drive %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("drive %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus returns the Drive response status, 0 for transport failures.
func (e *Error) HTTPStatus() int { return e.Status }

func driveError(op string, err error) error {
	out := &Error{Op: op, Err: err}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		out.Status = gerr.Code
	}
	return out
}

// DrivePublisher keeps one file per name: an existing file is overwritten,
// otherwise a new one is created.
type DrivePublisher struct {
	svc      *drive.Service
	folderID string
}

// NewDrivePublisher builds a publisher over an authorized HTTP client. New
// files are created in folderID, or in the account's root when empty.
func NewDrivePublisher(ctx context.Context, client *http.Client, folderID string, opts ...option.ClientOption) (*DrivePublisher, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &DrivePublisher{svc: svc, folderID: folderID}, nil
}

// Publish implements core.Publisher.
func (p *DrivePublisher) Publish(ctx context.Context, name string, body []byte) (core.PublishedFile, error) {
	existing, err := p.findByName(ctx, name)
	if err != nil {
		return core.PublishedFile{}, err
	}

	var f *drive.File
	if existing != "" {
		f, err = p.svc.Files.Update(existing, &drive.File{}).
			Media(bytes.NewReader(body), googleapi.ContentType(xmlMimeType)).
			Fields("id", "name", "modifiedTime").
			Context(ctx).
			Do()
		if err != nil {
			return core.PublishedFile{}, driveError("update "+name, err)
		}
	} else {
		meta := &drive.File{Name: name, MimeType: xmlMimeType}
		if p.folderID != "" {
			meta.Parents = []string{p.folderID}
		}
		f, err = p.svc.Files.Create(meta).
			Media(bytes.NewReader(body), googleapi.ContentType(xmlMimeType)).
			Fields("id", "name", "modifiedTime").
			Context(ctx).
			Do()
		if err != nil {
			return core.PublishedFile{}, driveError("create "+name, err)
		}
	}
	return core.PublishedFile{ID: f.Id, Name: f.Name, ModifiedTime: f.ModifiedTime}, nil
}

// findByName returns the ID of the first non-trashed file called name.
func (p *DrivePublisher) findByName(ctx context.Context, name string) (string, error) {
	q := fmt.Sprintf("name = '%s' and trashed = false", escapeQuery(name))
	list, err := p.svc.Files.List().
		Q(q).
		Fields("files(id, name)").
		PageSize(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", driveError("find "+name, err)
	}
	if len(list.Files) == 0 {
		return "", nil
	}
	return list.Files[0].Id, nil
}

// escapeQuery escapes a value for a single-quoted Drive query literal.
func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

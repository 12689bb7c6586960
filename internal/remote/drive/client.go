// Package drive implements the remote Client against the Google Drive v3
// API, which is the storage service the mirror was written for.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/bianoble/drive-mirror/internal/remote"
	"github.com/bianoble/drive-mirror/internal/retry"
)

const folderMimeType = "application/vnd.google-apps.folder"

// Client talks to Google Drive. It implements remote.Client.
type Client struct {
	svc *drive.Service
}

// New builds a Client on top of an authorized HTTP client.
func New(ctx context.Context, authorized *http.Client) (*Client, error) {
	svc, err := drive.NewService(ctx, option.WithHTTPClient(authorized))
	if err != nil {
		return nil, fmt.Errorf("building drive service: %w", err)
	}
	return &Client{svc: svc}, nil
}

const listFields = "nextPageToken, files(id, name, mimeType, modifiedTime, md5Checksum, size)"

// ListChildren returns the non-trashed children of a folder, following
// pagination to the end.
func (c *Client) ListChildren(ctx context.Context, parentID string) ([]remote.Entry, error) {
	query := fmt.Sprintf("'%s' in parents and trashed = false", escapeQueryTerm(parentID))

	var entries []remote.Entry
	pageToken := ""
	for {
		call := c.svc.Files.List().
			Q(query).
			Spaces("drive").
			PageSize(1000).
			Fields(listFields).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, classify("list", parentID, err)
		}
		for _, f := range resp.Files {
			entries = append(entries, toEntry(parentID, f))
		}
		if resp.NextPageToken == "" {
			return entries, nil
		}
		pageToken = resp.NextPageToken
	}
}

// CreateFolder creates a folder under the parent and returns its ID.
func (c *Client) CreateFolder(ctx context.Context, parentID, name string) (string, error) {
	meta := &drive.File{
		Name:     name,
		MimeType: folderMimeType,
		Parents:  []string{parentID},
	}
	created, err := c.svc.Files.Create(meta).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", classify("create-folder", name, err)
	}
	return created.Id, nil
}

// UploadNewFile uploads a new file under the parent, carrying over the
// local modification time so that re-runs compare cleanly.
func (c *Client) UploadNewFile(ctx context.Context, parentID, name, localPath string, modTime time.Time) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", &remote.APIError{Op: "upload", Path: name, Err: err}
	}
	defer f.Close()

	meta := &drive.File{
		Name:         name,
		Parents:      []string{parentID},
		ModifiedTime: formatModTime(modTime),
	}
	created, err := c.svc.Files.Create(meta).Media(f).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", classify("upload", name, err)
	}
	return created.Id, nil
}

// ReplaceFileContent uploads replacement content for an existing file.
func (c *Client) ReplaceFileContent(ctx context.Context, id, localPath string, modTime time.Time) error {
	f, err := os.Open(localPath)
	if err != nil {
		return &remote.APIError{Op: "update", Path: id, Err: err}
	}
	defer f.Close()

	meta := &drive.File{ModifiedTime: formatModTime(modTime)}
	_, err = c.svc.Files.Update(id, meta).Media(f).Fields("id, modifiedTime").Context(ctx).Do()
	if err != nil {
		return classify("update", id, err)
	}
	return nil
}

// DownloadFile streams a file's content to w.
func (c *Client) DownloadFile(ctx context.Context, id string, w io.Writer) error {
	resp, err := c.svc.Files.Get(id).Context(ctx).Download()
	if err != nil {
		return classify("download", id, err)
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return retry.Transient(&remote.APIError{Op: "download", Path: id, Err: err})
	}
	return nil
}

func toEntry(parentID string, f *drive.File) remote.Entry {
	e := remote.Entry{
		ID:       f.Id,
		Name:     f.Name,
		ParentID: parentID,
		Kind:     remote.KindFile,
		Size:     f.Size,
		MD5:      f.Md5Checksum,
		MimeType: f.MimeType,
	}
	if f.MimeType == folderMimeType {
		e.Kind = remote.KindFolder
	}
	if f.ModifiedTime != "" {
		if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
			e.ModTime = t
		}
	}
	return e
}

func formatModTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// escapeQueryTerm escapes a value interpolated into a Drive query string.
func escapeQueryTerm(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// classify converts an API error into the engine's taxonomy: rate limits,
// server faults, and network errors are transient; everything else is a
// terminal APIError.
func classify(op, path string, err error) error {
	apiErr := &remote.APIError{Op: op, Path: path, Err: err}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		apiErr.Code = gerr.Code
		if isRetryableStatus(gerr) {
			return retry.Transient(apiErr)
		}
		return apiErr
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	// Anything that never reached the API: DNS failures, resets, timeouts.
	return retry.Transient(apiErr)
}

func isRetryableStatus(gerr *googleapi.Error) bool {
	switch {
	case gerr.Code == http.StatusTooManyRequests:
		return true
	case gerr.Code >= 500:
		return true
	case gerr.Code == http.StatusForbidden:
		for _, item := range gerr.Errors {
			if item.Reason == "rateLimitExceeded" || item.Reason == "userRateLimitExceeded" {
				return true
			}
		}
	}
	return false
}

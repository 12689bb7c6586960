// Package remote defines the model of the remote storage tree and the
// Client interface the engine reconciles against. The concrete Google
// Drive implementation lives in the drive subpackage; tests substitute
// their own.
package remote

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Kind classifies a remote entry.
type Kind string

const (
	KindFile   Kind = "file"
	KindFolder Kind = "folder"
)

// Entry is one remote file or folder. Name is a single path segment; the
// remote service addresses children by (parent identifier, name), which is
// not unique, so duplicate names are possible.
type Entry struct {
	// ID is the opaque identifier assigned by the remote service.
	ID       string
	Name     string
	ParentID string
	Kind     Kind
	Size     int64

	// ModTime is zero when the service reported no modification time.
	ModTime time.Time

	// MD5 is the service-side content checksum, empty for folders and for
	// service-native documents that have no binary content.
	MD5 string

	// MimeType is informational; the engine only inspects it to detect
	// service-native documents that cannot be downloaded as-is.
	MimeType string
}

// Client is the remote storage API surface the engine consumes. All
// methods honor context cancellation. Implementations wrap transient
// failures with retry.Transient so the executor can tell them apart from
// terminal ones.
type Client interface {
	// ListChildren returns the immediate children of a folder, files and
	// folders alike, following pagination to the end.
	ListChildren(ctx context.Context, parentID string) ([]Entry, error)

	// CreateFolder creates a folder under the parent and returns its
	// identifier.
	CreateFolder(ctx context.Context, parentID, name string) (string, error)

	// UploadNewFile uploads a new file under the parent, preserving the
	// local modification time, and returns the new identifier.
	UploadNewFile(ctx context.Context, parentID, name, localPath string, modTime time.Time) (string, error)

	// ReplaceFileContent uploads replacement content for an existing file.
	ReplaceFileContent(ctx context.Context, id, localPath string, modTime time.Time) error

	// DownloadFile streams a file's content to w.
	DownloadFile(ctx context.Context, id string, w io.Writer) error
}

// RootID addresses the remote service's top-level folder.
const RootID = "root"

// APIError is a terminal remote API failure: permission denied, quota
// exceeded, malformed request. It is recorded per action, never retried.
type APIError struct {
	Op   string // "list", "create-folder", "upload", "update", "download"
	Path string // name or identifier the operation targeted
	Code int    // HTTP status, 0 if not applicable
	Err  error
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("remote %s %q failed (HTTP %d): %s", e.Op, e.Path, e.Code, e.Err)
	}
	return fmt.Sprintf("remote %s %q failed: %s", e.Op, e.Path, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

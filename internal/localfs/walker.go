// Package localfs walks the local directory subtree and computes content
// hashes on demand. It is the only package that reads the local filesystem
// during a run; everything else sees Entry values.
package localfs

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// Kind classifies a local entry.
type Kind string

const (
	KindFile Kind = "file"
	KindDir  Kind = "dir"

	// KindUnsupported marks symlinks and other non-regular files. They are
	// emitted so the caller can record a skip, never descended into.
	KindUnsupported Kind = "unsupported"
)

// Entry is one local file or directory, relative to the walk root.
type Entry struct {
	// RelPath is slash-separated and root-relative, e.g. "sub/b.txt".
	RelPath string
	Name    string
	Kind    Kind
	Size    int64 // files only
	ModTime time.Time
}

// WalkFunc is invoked once per entry, parent directory before children.
// Returning ErrSkipDir for a directory entry skips its whole subtree.
type WalkFunc func(e Entry) error

// ErrSkipDir signals that the just-visited directory's subtree should be
// skipped without aborting the walk.
var ErrSkipDir = errors.New("skip this directory")

// NotFoundError means the walk root does not exist or is not a directory.
// This is fatal to the run.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("local root %q does not exist or is not a directory", e.Path)
}

// AccessError means a directory could not be read. The subtree is skipped
// and the walk continues with the directory's siblings.
type AccessError struct {
	Path string // relative to the walk root
	Err  error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("cannot read directory %q: %s", e.Path, e.Err)
}

func (e *AccessError) Unwrap() error { return e.Err }

// Walker produces local entries in depth-first, parent-before-children
// order. Each directory is fully emitted before the walker moves on to the
// directory's sibling.
type Walker struct {
	Fs   afero.Fs
	Root string

	// IncludeHidden emits dot-prefixed entries instead of skipping them.
	IncludeHidden bool

	// OnDirError is called when a subdirectory cannot be read. The
	// subtree is skipped; the walk continues. May be nil.
	OnDirError func(relPath string, err error)
}

// Walk visits every entry under the root. The root itself is not emitted;
// its children have single-segment RelPaths.
func (w *Walker) Walk(visit WalkFunc) error {
	info, err := w.Fs.Stat(w.Root)
	if err != nil || !info.IsDir() {
		return &NotFoundError{Path: w.Root}
	}
	return w.walkDir("", visit)
}

func (w *Walker) walkDir(rel string, visit WalkFunc) error {
	infos, err := afero.ReadDir(w.Fs, filepath.Join(w.Root, filepath.FromSlash(rel)))
	if err != nil {
		accessErr := &AccessError{Path: rel, Err: err}
		if w.OnDirError != nil {
			w.OnDirError(rel, accessErr)
		}
		return nil
	}

	// Deterministic order; ReadDir sorts on most backends but not all.
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })

	for _, info := range infos {
		name := info.Name()
		if !w.IncludeHidden && strings.HasPrefix(name, ".") {
			continue
		}

		entry := Entry{
			RelPath: path.Join(rel, name),
			Name:    name,
			ModTime: info.ModTime(),
		}
		switch {
		case info.IsDir():
			entry.Kind = KindDir
		case info.Mode().IsRegular():
			entry.Kind = KindFile
			entry.Size = info.Size()
		default:
			entry.Kind = KindUnsupported
		}

		err := visit(entry)
		switch {
		case errors.Is(err, ErrSkipDir):
			continue
		case err != nil:
			return err
		}

		if entry.Kind == KindDir {
			if err := w.walkDir(entry.RelPath, visit); err != nil {
				return err
			}
		}
	}
	return nil
}

// IsHidden reports whether any segment of the slash-separated relative
// path is dot-prefixed.
func IsHidden(relPath string) bool {
	for _, seg := range strings.Split(relPath, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

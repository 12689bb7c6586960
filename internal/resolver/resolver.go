// Package resolver maps relative local paths to remote folder identifiers.
// The remote service indexes children by (parent, name) rather than by a
// stable path key, so the resolver owns a run-scoped cache that guarantees
// each path is resolved (found or created) at most once per run.
package resolver

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/bianoble/drive-mirror/internal/remote"
)

// syntheticPrefix marks placeholder identifiers recorded in dry-run mode.
const syntheticPrefix = "dry-run:/"

// IsSynthetic reports whether an identifier is a dry-run placeholder.
func IsSynthetic(id string) bool {
	return strings.HasPrefix(id, syntheticPrefix)
}

func syntheticID(relPath string) string {
	return syntheticPrefix + relPath
}

// MismatchError means a path segment matched a remote file where a folder
// was required. The subtree cannot be mirrored without overwriting it.
type MismatchError struct {
	Path string
	Name string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("remote has a file named %q where folder %q is needed", e.Name, e.Path)
}

// ErrRootNotFound is returned by LookupRoot when the backup root folder
// does not exist remotely.
type ErrRootNotFound struct {
	Name string
}

func (e *ErrRootNotFound) Error() string {
	return fmt.Sprintf("backup root folder %q not found", e.Name)
}

// Resolver resolves relative directory paths against the remote tree,
// creating intermediate folders on demand. It also caches folder listings
// for the run so each remote folder is listed at most once.
type Resolver struct {
	client remote.Client
	dryRun bool
	cache  *PathCache

	listings *listingCache
}

// New creates a Resolver. In dry-run mode created folders get synthetic
// identifiers and subsequent lookups treat them as existing.
func New(client remote.Client, dryRun bool) *Resolver {
	return &Resolver{
		client:   client,
		dryRun:   dryRun,
		cache:    NewPathCache(),
		listings: newListingCache(),
	}
}

// Cache exposes the path cache, mainly for tests and diagnostics.
func (r *Resolver) Cache() *PathCache { return r.cache }

// EnsureRoot resolves the backup root folder under the service root,
// creating it if absent, and seeds the path cache. Must be called once
// before ResolveFolder.
func (r *Resolver) EnsureRoot(ctx context.Context, name string) (string, error) {
	if id, ok := r.cache.Get(""); ok {
		return id, nil
	}
	id, _, err := r.resolveSegment(ctx, remote.RootID, "", name, true)
	if err != nil {
		return "", err
	}
	return r.cache.Set("", id), nil
}

// LookupRoot resolves the backup root folder without creating it. Used by
// restore, where a missing root means there is nothing to restore from.
func (r *Resolver) LookupRoot(ctx context.Context, name string) (string, error) {
	if id, ok := r.cache.Get(""); ok {
		return id, nil
	}
	children, err := r.ListChildren(ctx, remote.RootID)
	if err != nil {
		return "", err
	}
	match, ok := r.FindByName(children, name, remote.KindFolder)
	if !ok {
		return "", &ErrRootNotFound{Name: name}
	}
	return r.cache.Set("", match.ID), nil
}

// ResolveFolder returns the remote folder identifier for a relative
// directory path, creating missing folders segment by segment. The
// returned flag reports whether the final segment was created (or would
// be, in dry-run) rather than found.
func (r *Resolver) ResolveFolder(ctx context.Context, relPath string) (string, bool, error) {
	parentID, ok := r.cache.Get("")
	if !ok {
		return "", false, fmt.Errorf("backup root not resolved — EnsureRoot must run first")
	}
	if relPath == "" {
		return parentID, false, nil
	}

	segments := strings.Split(relPath, "/")
	created := false
	walked := ""
	for _, segment := range segments {
		if walked == "" {
			walked = segment
		} else {
			walked = walked + "/" + segment
		}

		if id, ok := r.cache.Get(walked); ok {
			parentID = id
			created = false
			continue
		}

		id, didCreate, err := r.resolveSegment(ctx, parentID, walked, segment, true)
		if err != nil {
			return "", false, err
		}
		parentID = r.cache.Set(walked, id)
		created = didCreate
	}
	return parentID, created, nil
}

// resolveSegment finds or creates one folder level under parentID.
func (r *Resolver) resolveSegment(ctx context.Context, parentID, relPath, name string, create bool) (string, bool, error) {
	// Children of a folder synthesized this run are known empty; skip the
	// network and go straight to creation.
	if !IsSynthetic(parentID) {
		children, err := r.ListChildren(ctx, parentID)
		if err != nil {
			return "", false, err
		}
		if match, ok := r.FindByName(children, name, remote.KindFolder); ok {
			return match.ID, false, nil
		}
		if _, fileExists := r.FindByName(children, name, remote.KindFile); fileExists {
			return "", false, &MismatchError{Path: relPath, Name: name}
		}
	}

	if !create {
		return "", false, &ErrRootNotFound{Name: name}
	}

	if r.dryRun {
		return syntheticID(relPath), true, nil
	}

	id, err := r.client.CreateFolder(ctx, parentID, name)
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

// ListChildren returns a folder's children, consulting the run-scoped
// listing cache first. Synthetic folders are empty by construction.
func (r *Resolver) ListChildren(ctx context.Context, folderID string) ([]remote.Entry, error) {
	if IsSynthetic(folderID) {
		return nil, nil
	}
	if entries, ok := r.listings.get(folderID); ok {
		return entries, nil
	}
	entries, err := r.client.ListChildren(ctx, folderID)
	if err != nil {
		return nil, err
	}
	return r.listings.set(folderID, entries), nil
}

// FindByName returns the first entry of the wanted kind with an exact,
// case-sensitive name match, in listing order. Duplicate names are legal
// on the remote side; when they occur the first match wins and a warning
// is logged.
func (r *Resolver) FindByName(entries []remote.Entry, name string, kind remote.Kind) (remote.Entry, bool) {
	var (
		first remote.Entry
		count int
	)
	for _, e := range entries {
		if e.Name != name || e.Kind != kind {
			continue
		}
		if count == 0 {
			first = e
		}
		count++
	}
	if count > 1 {
		log.WithFields(log.Fields{
			"name":       name,
			"kind":       kind,
			"duplicates": count,
			"chosen":     first.ID,
		}).Warn("Duplicate remote names under the same parent; using the first listing match.")
	}
	return first, count > 0
}

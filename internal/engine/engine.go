// Package engine is the tree reconciliation core: it walks the local
// subtree, resolves each directory against the remote tree, classifies
// each file, and applies (or simulates) the resulting actions.
package engine

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/bianoble/drive-mirror/internal/config"
	"github.com/bianoble/drive-mirror/internal/localfs"
	"github.com/bianoble/drive-mirror/internal/remote"
	"github.com/bianoble/drive-mirror/internal/resolver"
	"github.com/bianoble/drive-mirror/internal/retry"
	"github.com/bianoble/drive-mirror/pkg/mirror"
)

// Engine orchestrates one mirror run.
type Engine struct {
	Fs       afero.Fs
	Client   remote.Client
	Resolver *resolver.Resolver
	Detector *Detector
	Config   *config.Config
	Retry    retry.Config
}

// New wires an Engine from its collaborators and the run configuration.
func New(fs afero.Fs, client remote.Client, cfg *config.Config) *Engine {
	return &Engine{
		Fs:       fs,
		Client:   client,
		Resolver: resolver.New(client, cfg.IsDryRun()),
		Detector: &Detector{
			CompareHashes: cfg.CompareHashes,
			Tolerance:     cfg.Tolerance(),
			HashFile: func(p string) (string, error) {
				return localfs.MD5File(fs, p)
			},
		},
		Config: cfg,
		Retry: retry.Config{
			MaxAttempts: cfg.Retry.MaxAttempts,
			InitialWait: time.Duration(cfg.Retry.InitialBackoffMs) * time.Millisecond,
			MaxWait:     time.Duration(cfg.Retry.MaxBackoffMs) * time.Millisecond,
			Multiplier:  2.0,
			Jitter:      0.1,
		},
	}
}

// Run mirrors the local root into the remote backup root and returns the
// run report. Precondition failures (missing local root, unresolvable
// backup root) abort before any mutation; everything else is isolated per
// action. On cancellation the in-flight action finishes, the report is
// returned as accumulated, and ctx.Err() is reported.
func (e *Engine) Run(ctx context.Context) (*mirror.RunReport, error) {
	report := &mirror.RunReport{}

	if _, err := e.Resolver.EnsureRoot(ctx, e.Config.BackupRootName); err != nil {
		return report, fmt.Errorf("resolving backup root %q: %w", e.Config.BackupRootName, err)
	}

	walker := &localfs.Walker{
		Fs:            e.Fs,
		Root:          e.Config.LocalRoot,
		IncludeHidden: e.Config.IncludeHidden,
		OnDirError: func(relPath string, err error) {
			log.WithError(err).WithField("path", relPath).Warn("Skipping unreadable local directory.")
			report.Append(mirror.Record{
				Action: mirror.Action{Kind: mirror.ActionSkip, Path: relPath, Reason: mirror.SkipUnreadable},
			})
		},
	}

	// Sibling files of one directory are batched so the executor may
	// upload them in parallel; the batch always flushes before the walk
	// enters another directory, preserving parent-before-children order
	// in the report.
	var pending []fileWork

	flush := func() {
		if len(pending) == 0 {
			return
		}
		e.applyFiles(ctx, pending, report)
		pending = pending[:0]
	}

	walkErr := walker.Walk(func(entry localfs.Entry) error {
		// Cooperative stop: checked between actions, never mid-action.
		if ctx.Err() != nil {
			return ctx.Err()
		}

		switch entry.Kind {
		case localfs.KindDir:
			flush()
			return e.planDir(ctx, entry, report)
		case localfs.KindFile:
			work, rec, err := e.planFile(ctx, entry)
			if err != nil {
				return err
			}
			if rec != nil {
				report.Append(*rec)
				return nil
			}
			pending = append(pending, *work)
			return nil
		default:
			log.WithField("path", entry.RelPath).Debug("Skipping unsupported local entry.")
			report.Append(mirror.Record{
				Action: mirror.Action{Kind: mirror.ActionSkip, Path: entry.RelPath, Reason: mirror.SkipUnsupportedType},
			})
			return nil
		}
	})
	flush()

	if walkErr != nil {
		var notFound *localfs.NotFoundError
		if errors.As(walkErr, &notFound) {
			return report, walkErr
		}
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		return report, walkErr
	}
	return report, nil
}

// planDir resolves a local directory to its remote folder, recording a
// create-folder action when the folder had to be created. A remote file
// squatting on the name, or a terminal resolution failure, skips the
// whole subtree without aborting the run.
func (e *Engine) planDir(ctx context.Context, entry localfs.Entry, report *mirror.RunReport) error {
	id, created, err := e.Resolver.ResolveFolder(ctx, entry.RelPath)

	var mismatch *resolver.MismatchError
	if errors.As(err, &mismatch) {
		log.WithField("path", entry.RelPath).Warn(
			"Local directory collides with a remote file of the same name; skipping subtree.")
		report.Append(mirror.Record{
			Action: mirror.Action{Kind: mirror.ActionSkip, Path: entry.RelPath, Reason: mirror.SkipKindMismatch},
		})
		return localfs.ErrSkipDir
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		report.Append(mirror.Record{
			Action:  mirror.Action{Kind: mirror.ActionCreateFolder, Path: entry.RelPath},
			Outcome: mirror.Outcome{Err: err},
		})
		return localfs.ErrSkipDir
	}

	if created {
		report.Append(mirror.Record{
			Action:  mirror.Action{Kind: mirror.ActionCreateFolder, Path: entry.RelPath},
			Outcome: mirror.Outcome{RemoteID: id, Simulated: e.Config.IsDryRun()},
		})
	}
	return nil
}

// planFile matches a local file against the resolved remote folder's
// listing and classifies it. It returns either queued work for the
// executor or a ready-made record (skips and listing failures).
func (e *Engine) planFile(ctx context.Context, entry localfs.Entry) (*fileWork, *mirror.Record, error) {
	folderID, ok := e.Resolver.Cache().Get(parentDir(entry.RelPath))
	if !ok {
		// Ordering invariant violated; this is a bug, not a data error.
		return nil, nil, fmt.Errorf("parent folder of %q was not resolved before its children", entry.RelPath)
	}

	listing, err := e.Resolver.ListChildren(ctx, folderID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return nil, &mirror.Record{
			Action:  mirror.Action{Kind: mirror.ActionSkip, Path: entry.RelPath, Reason: mirror.SkipUnreadable},
			Outcome: mirror.Outcome{Err: err},
		}, nil
	}

	if _, folderExists := e.Resolver.FindByName(listing, entry.Name, remote.KindFolder); folderExists {
		log.WithField("path", entry.RelPath).Warn(
			"Local file collides with a remote folder of the same name; skipping.")
		return nil, &mirror.Record{
			Action: mirror.Action{Kind: mirror.ActionSkip, Path: entry.RelPath, Reason: mirror.SkipKindMismatch},
		}, nil
	}

	var match *remote.Entry
	if m, found := e.Resolver.FindByName(listing, entry.Name, remote.KindFile); found {
		match = &m
	}

	verdict, hashErr := e.Detector.Classify(entry, e.localPath(entry.RelPath), match)
	if hashErr != nil {
		log.WithError(hashErr).WithField("path", entry.RelPath).Warn(
			"Could not hash local file; assuming it changed.")
	}
	log.WithFields(log.Fields{"path": entry.RelPath, "verdict": verdict}).Debug("Classified local file.")

	switch verdict {
	case VerdictIdentical:
		return nil, &mirror.Record{
			Action: mirror.Action{Kind: mirror.ActionSkip, Path: entry.RelPath, Reason: mirror.SkipUnchanged},
		}, nil
	case VerdictAbsent:
		return &fileWork{
			action:   mirror.Action{Kind: mirror.ActionCreateFile, Path: entry.RelPath},
			entry:    entry,
			folderID: folderID,
		}, nil, nil
	default:
		return &fileWork{
			action:   mirror.Action{Kind: mirror.ActionUpdateFile, Path: entry.RelPath},
			entry:    entry,
			folderID: folderID,
			remoteID: match.ID,
		}, nil, nil
	}
}

func (e *Engine) localPath(relPath string) string {
	return filepath.Join(e.Config.LocalRoot, filepath.FromSlash(relPath))
}

// parentDir returns the slash-separated parent of a relative path, ""
// for a top-level entry.
func parentDir(relPath string) string {
	dir := path.Dir(relPath)
	if dir == "." {
		return ""
	}
	return dir
}

package engine

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/bianoble/drive-mirror/internal/remote"
	"github.com/bianoble/drive-mirror/internal/retry"
	"github.com/bianoble/drive-mirror/pkg/mirror"
)

const workspaceMimePrefix = "application/vnd.google-apps"

// Restore mirrors the remote backup root back into the local root:
// missing local directories are created, files that are absent locally or
// newer remotely are downloaded, and nothing local is ever deleted.
// A missing backup root is fatal: there is nothing to restore from.
func (e *Engine) Restore(ctx context.Context) (*mirror.RunReport, error) {
	report := &mirror.RunReport{}

	rootID, err := e.Resolver.LookupRoot(ctx, e.Config.BackupRootName)
	if err != nil {
		return report, fmt.Errorf("looking up backup root: %w", err)
	}

	if !e.Config.IsDryRun() {
		if err := e.Fs.MkdirAll(e.Config.LocalRoot, 0755); err != nil {
			return report, fmt.Errorf("creating local root %s: %w", e.Config.LocalRoot, err)
		}
	}

	if err := e.restoreInto(ctx, rootID, "", report); err != nil {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		return report, err
	}
	return report, nil
}

// restoreInto walks one remote folder depth-first, handling each child in
// listing order and recursing into subfolders as they are encountered.
func (e *Engine) restoreInto(ctx context.Context, folderID, relPath string, report *mirror.RunReport) error {
	children, err := e.Resolver.ListChildren(ctx, folderID)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).WithField("path", relPath).Warn("Skipping unlistable remote folder.")
		report.Append(mirror.Record{
			Action:  mirror.Action{Kind: mirror.ActionSkip, Path: relPath, Reason: mirror.SkipUnreadable},
			Outcome: mirror.Outcome{Err: err},
		})
		return nil
	}

	for _, child := range children {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !e.Config.IncludeHidden && strings.HasPrefix(child.Name, ".") {
			continue
		}

		childRel := path.Join(relPath, child.Name)
		if child.Kind == remote.KindFolder {
			if err := e.restoreDir(ctx, child, childRel, report); err != nil {
				return err
			}
			continue
		}
		if err := e.restoreFile(ctx, child, childRel, report); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) restoreDir(ctx context.Context, folder remote.Entry, relPath string, report *mirror.RunReport) error {
	localPath := e.localPath(relPath)

	info, statErr := e.Fs.Stat(localPath)
	switch {
	case statErr == nil && !info.IsDir():
		log.WithField("path", relPath).Warn(
			"Remote folder collides with a local file of the same name; skipping subtree.")
		report.Append(mirror.Record{
			Action: mirror.Action{Kind: mirror.ActionSkip, Path: relPath, Reason: mirror.SkipKindMismatch},
		})
		return nil
	case statErr != nil:
		if e.Config.IsDryRun() {
			report.Append(mirror.Record{
				Action:  mirror.Action{Kind: mirror.ActionCreateFolder, Path: relPath},
				Outcome: mirror.Outcome{Simulated: true},
			})
		} else if err := e.Fs.MkdirAll(localPath, 0755); err != nil {
			report.Append(mirror.Record{
				Action:  mirror.Action{Kind: mirror.ActionCreateFolder, Path: relPath},
				Outcome: mirror.Outcome{Err: err},
			})
			return nil // nowhere to place children either; skip subtree
		} else {
			report.Append(mirror.Record{
				Action: mirror.Action{Kind: mirror.ActionCreateFolder, Path: relPath},
			})
		}
	}

	return e.restoreInto(ctx, folder.ID, relPath, report)
}

func (e *Engine) restoreFile(ctx context.Context, file remote.Entry, relPath string, report *mirror.RunReport) error {
	// Service-native documents have no binary content to download; export
	// is out of scope.
	if strings.HasPrefix(file.MimeType, workspaceMimePrefix) {
		report.Append(mirror.Record{
			Action: mirror.Action{Kind: mirror.ActionSkip, Path: relPath, Reason: mirror.SkipUnsupportedType},
		})
		return nil
	}

	localPath := e.localPath(relPath)
	kind := mirror.ActionCreateFile

	info, statErr := e.Fs.Stat(localPath)
	if statErr == nil {
		if info.IsDir() {
			log.WithField("path", relPath).Warn(
				"Remote file collides with a local directory of the same name; skipping.")
			report.Append(mirror.Record{
				Action: mirror.Action{Kind: mirror.ActionSkip, Path: relPath, Reason: mirror.SkipKindMismatch},
			})
			return nil
		}

		changed, hashErr := e.remoteNewer(file, info, localPath)
		if hashErr != nil {
			log.WithError(hashErr).WithField("path", relPath).Warn(
				"Could not hash local file; assuming the remote copy is newer.")
		}
		if !changed {
			report.Append(mirror.Record{
				Action: mirror.Action{Kind: mirror.ActionSkip, Path: relPath, Reason: mirror.SkipUnchanged},
			})
			return nil
		}
		kind = mirror.ActionUpdateFile
	}

	action := mirror.Action{Kind: kind, Path: relPath}
	if e.Config.IsDryRun() {
		report.Append(mirror.Record{
			Action:  action,
			Outcome: mirror.Outcome{RemoteID: file.ID, Simulated: true},
		})
		return nil
	}

	err := retry.Do(ctx, e.Retry, func() error {
		return e.download(ctx, file.ID, localPath)
	})
	if err != nil {
		report.Append(mirror.Record{Action: action, Outcome: mirror.Outcome{Err: err}})
		return nil
	}
	if !file.ModTime.IsZero() {
		_ = e.Fs.Chtimes(localPath, file.ModTime, file.ModTime)
	}
	report.Append(mirror.Record{Action: action, Outcome: mirror.Outcome{RemoteID: file.ID}})
	return nil
}

// remoteNewer runs the detector's cost ladder with the roles reversed:
// size first, then the remote timestamp newer than the local one beyond
// the tolerance, then the optional hash comparison.
func (e *Engine) remoteNewer(file remote.Entry, info os.FileInfo, localPath string) (bool, error) {
	if file.Size != info.Size() {
		return true, nil
	}
	if file.ModTime.IsZero() {
		return true, nil
	}
	if file.ModTime.After(info.ModTime().Add(e.Detector.Tolerance)) {
		return true, nil
	}
	if !e.Detector.CompareHashes {
		return false, nil
	}
	if file.MD5 == "" {
		return true, nil
	}
	localMD5, err := e.Detector.HashFile(localPath)
	if err != nil {
		return true, err
	}
	return localMD5 != file.MD5, nil
}

// download streams the remote file into localPath via a temp file and a
// rename, so a failed transfer never leaves a truncated file behind.
func (e *Engine) download(ctx context.Context, fileID, localPath string) error {
	dir := filepath.Dir(localPath)
	tmp, err := afero.TempFile(e.Fs, dir, ".drive-mirror-*")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = e.Fs.Remove(tmpPath)
		}
	}()

	if err := e.Client.DownloadFile(ctx, fileID, tmp); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := e.Fs.Rename(tmpPath, localPath); err != nil {
		return fmt.Errorf("renaming temp file into place: %w", err)
	}
	success = true
	return nil
}

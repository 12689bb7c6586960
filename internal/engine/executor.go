package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/bianoble/drive-mirror/internal/localfs"
	"github.com/bianoble/drive-mirror/internal/retry"
	"github.com/bianoble/drive-mirror/pkg/mirror"
)

// fileWork is one upload decision waiting for the executor: a create or
// update of a single file in an already-resolved remote folder.
type fileWork struct {
	action   mirror.Action
	entry    localfs.Entry
	folderID string
	remoteID string // update only
}

// applyFiles executes a batch of sibling-file actions against the remote,
// in parallel up to the configured concurrency. All files in a batch share
// the same already-resolved parent folder, so they are independent of each
// other; a failure is recorded on its own record and never stops the batch.
func (e *Engine) applyFiles(ctx context.Context, batch []fileWork, report *mirror.RunReport) {
	if e.Config.Concurrency <= 1 || len(batch) == 1 {
		for _, w := range batch {
			if ctx.Err() != nil {
				return
			}
			report.Append(e.applyFile(ctx, w))
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(e.Config.Concurrency)
	for _, w := range batch {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			report.Append(e.applyFile(ctx, w))
			return nil
		})
	}
	_ = g.Wait()
}

// applyFile performs one create-file or update-file action. In dry-run
// mode no mutation call is made; the would-be outcome is recorded with a
// simulated marker. Transient remote errors are retried with backoff;
// whatever error survives the retry budget is recorded on the record.
func (e *Engine) applyFile(ctx context.Context, w fileWork) mirror.Record {
	if e.Config.IsDryRun() {
		return mirror.Record{
			Action:  w.action,
			Outcome: mirror.Outcome{RemoteID: "dry-run:/" + w.action.Path, Simulated: true},
		}
	}

	localPath := e.localPath(w.entry.RelPath)

	var (
		remoteID = w.remoteID
		err      error
	)
	switch w.action.Kind {
	case mirror.ActionCreateFile:
		err = retry.Do(ctx, e.Retry, func() error {
			var uploadErr error
			remoteID, uploadErr = e.Client.UploadNewFile(ctx, w.folderID, w.entry.Name, localPath, w.entry.ModTime)
			return uploadErr
		})
	case mirror.ActionUpdateFile:
		err = retry.Do(ctx, e.Retry, func() error {
			return e.Client.ReplaceFileContent(ctx, w.remoteID, localPath, w.entry.ModTime)
		})
	}

	if err != nil {
		return mirror.Record{Action: w.action, Outcome: mirror.Outcome{Err: err}}
	}
	return mirror.Record{Action: w.action, Outcome: mirror.Outcome{RemoteID: remoteID}}
}

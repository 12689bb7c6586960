package engine

import (
	"time"

	"github.com/bianoble/drive-mirror/internal/localfs"
	"github.com/bianoble/drive-mirror/internal/remote"
)

// Verdict is the change detector's classification of a local file against
// its remote match.
type Verdict string

const (
	VerdictAbsent    Verdict = "absent"
	VerdictIdentical Verdict = "identical"
	VerdictChanged   Verdict = "changed"
)

// Detector classifies local files against remote entries. Checks run as a
// cost ladder: size, then timestamps within a tolerance, and finally the
// content hash, computed only when hashing was opted into and the cheaper
// checks could not decide.
type Detector struct {
	// CompareHashes enables the final MD5 comparison step.
	CompareHashes bool

	// Tolerance absorbs clock granularity differences between the local
	// filesystem and the remote service.
	Tolerance time.Duration

	// HashFile computes the MD5 hex digest of a local file. Never called
	// unless CompareHashes is set and the cheaper checks could not decide.
	HashFile func(path string) (string, error)
}

// Classify decides whether the local file is absent remotely, identical to
// its remote match, or changed. localPath is the full path used if the
// content hash has to be computed. The returned error is only ever set
// alongside VerdictChanged, when the local file could not be hashed; the
// original is then assumed changed rather than silently skipped.
func (d *Detector) Classify(local localfs.Entry, localPath string, remoteMatch *remote.Entry) (Verdict, error) {
	if remoteMatch == nil {
		return VerdictAbsent, nil
	}

	if local.Size != remoteMatch.Size {
		return VerdictChanged, nil
	}

	// No remote timestamp means nothing cheap left to compare against.
	if remoteMatch.ModTime.IsZero() {
		return VerdictChanged, nil
	}
	if local.ModTime.After(remoteMatch.ModTime.Add(d.Tolerance)) {
		return VerdictChanged, nil
	}

	if !d.CompareHashes {
		return VerdictIdentical, nil
	}
	if remoteMatch.MD5 == "" {
		// Hash comparison requested but the remote stored no checksum.
		return VerdictChanged, nil
	}

	localMD5, err := d.HashFile(localPath)
	if err != nil {
		return VerdictChanged, err
	}
	if localMD5 != remoteMatch.MD5 {
		return VerdictChanged, nil
	}
	return VerdictIdentical, nil
}

package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/bianoble/drive-mirror/internal/localfs"
	"github.com/bianoble/drive-mirror/internal/remote"
)

func newDetector(compareHashes bool) *Detector {
	return &Detector{
		CompareHashes: compareHashes,
		Tolerance:     2 * time.Second,
		HashFile: func(string) (string, error) {
			return "", errors.New("hash should not be needed")
		},
	}
}

func localEntry(size int64, mod time.Time) localfs.Entry {
	return localfs.Entry{RelPath: "a.txt", Name: "a.txt", Kind: localfs.KindFile, Size: size, ModTime: mod}
}

func TestClassifyAbsent(t *testing.T) {
	d := newDetector(false)
	v, err := d.Classify(localEntry(3, time.Now()), "/local/a.txt", nil)
	if err != nil || v != VerdictAbsent {
		t.Errorf("got (%v, %v), want absent", v, err)
	}
}

func TestClassifySizeMismatch(t *testing.T) {
	d := newDetector(false)
	rm := &remote.Entry{Size: 10, ModTime: time.Now()}
	v, _ := d.Classify(localEntry(3, time.Now()), "/local/a.txt", rm)
	if v != VerdictChanged {
		t.Errorf("verdict = %v, want changed", v)
	}
}

func TestClassifyRemoteWithoutModTime(t *testing.T) {
	d := newDetector(false)
	rm := &remote.Entry{Size: 3} // zero ModTime
	v, _ := d.Classify(localEntry(3, time.Now()), "/local/a.txt", rm)
	if v != VerdictChanged {
		t.Errorf("verdict = %v, want changed when remote has no timestamp", v)
	}
}

func TestClassifyLocalNewerBeyondTolerance(t *testing.T) {
	d := newDetector(false)
	now := time.Now()
	rm := &remote.Entry{Size: 3, ModTime: now.Add(-10 * time.Second)}
	v, _ := d.Classify(localEntry(3, now), "/local/a.txt", rm)
	if v != VerdictChanged {
		t.Errorf("verdict = %v, want changed", v)
	}
}

func TestClassifyWithinToleranceIdentical(t *testing.T) {
	d := newDetector(false)
	now := time.Now()
	rm := &remote.Entry{Size: 3, ModTime: now.Add(-time.Second)}
	v, err := d.Classify(localEntry(3, now), "/local/a.txt", rm)
	if err != nil || v != VerdictIdentical {
		t.Errorf("got (%v, %v), want identical", v, err)
	}
}

func TestClassifyRemoteNewerIdentical(t *testing.T) {
	// A remote copy newer than the local one is not a reason to upload.
	d := newDetector(false)
	now := time.Now()
	rm := &remote.Entry{Size: 3, ModTime: now.Add(time.Hour)}
	v, _ := d.Classify(localEntry(3, now), "/local/a.txt", rm)
	if v != VerdictIdentical {
		t.Errorf("verdict = %v, want identical", v)
	}
}

func TestClassifyHashDisabledNeverHashes(t *testing.T) {
	d := newDetector(false)
	calls := 0
	d.HashFile = func(string) (string, error) {
		calls++
		return "x", nil
	}
	now := time.Now()
	rm := &remote.Entry{Size: 3, ModTime: now, MD5: "deadbeef"}
	if v, _ := d.Classify(localEntry(3, now), "/local/a.txt", rm); v != VerdictIdentical {
		t.Errorf("verdict = %v", v)
	}
	if calls != 0 {
		t.Errorf("HashFile called %d times with hashing disabled", calls)
	}
}

func TestClassifyHashMismatch(t *testing.T) {
	d := newDetector(true)
	d.HashFile = func(string) (string, error) { return "aaaa", nil }
	now := time.Now()
	rm := &remote.Entry{Size: 3, ModTime: now, MD5: "bbbb"}
	v, err := d.Classify(localEntry(3, now), "/local/a.txt", rm)
	if err != nil || v != VerdictChanged {
		t.Errorf("got (%v, %v), want changed", v, err)
	}
}

func TestClassifyHashMatchIdentical(t *testing.T) {
	d := newDetector(true)
	d.HashFile = func(string) (string, error) { return "same", nil }
	now := time.Now()
	rm := &remote.Entry{Size: 3, ModTime: now, MD5: "same"}
	v, err := d.Classify(localEntry(3, now), "/local/a.txt", rm)
	if err != nil || v != VerdictIdentical {
		t.Errorf("got (%v, %v), want identical", v, err)
	}
}

func TestClassifyRemoteMissingChecksum(t *testing.T) {
	d := newDetector(true)
	now := time.Now()
	rm := &remote.Entry{Size: 3, ModTime: now} // no MD5
	v, _ := d.Classify(localEntry(3, now), "/local/a.txt", rm)
	if v != VerdictChanged {
		t.Errorf("verdict = %v, want changed when remote stored no checksum", v)
	}
}

func TestClassifyHashErrorAssumesChanged(t *testing.T) {
	d := newDetector(true)
	boom := errors.New("permission denied")
	d.HashFile = func(string) (string, error) { return "", boom }
	now := time.Now()
	rm := &remote.Entry{Size: 3, ModTime: now, MD5: "cccc"}
	v, err := d.Classify(localEntry(3, now), "/local/a.txt", rm)
	if v != VerdictChanged {
		t.Errorf("verdict = %v, want changed", v)
	}
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want the hash error surfaced", err)
	}
}

func TestClassifySizeDecidesBeforeHash(t *testing.T) {
	d := newDetector(true)
	calls := 0
	d.HashFile = func(string) (string, error) {
		calls++
		return "x", nil
	}
	rm := &remote.Entry{Size: 99, ModTime: time.Now(), MD5: "y"}
	if v, _ := d.Classify(localEntry(3, time.Now()), "/local/a.txt", rm); v != VerdictChanged {
		t.Error("size mismatch should classify as changed")
	}
	if calls != 0 {
		t.Error("hash computed although size already decided")
	}
}

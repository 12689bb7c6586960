package localfs

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/afero"
)

const hashBlockSize = 8192

// MD5File computes the MD5 hex digest of a file's contents, reading in
// fixed-size blocks. MD5 matches the checksum algorithm the remote service
// stores for uploaded files; it is a change-detection fingerprint, not an
// integrity guarantee.
func MD5File(fs afero.Fs, path string) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.CopyBuffer(h, f, make([]byte, hashBlockSize)); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

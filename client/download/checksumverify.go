package download

import (
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
)

// checksumVerifier hashes the downloaded bytes and compares the digest
// with the expected hex string once the transfer completes.
type checksumVerifier struct {
	hash     hash.Hash
	expected string
}

func (v *checksumVerifier) Write(p []byte) (int, error) {
	return v.hash.Write(p)
}

// seed feeds the first n bytes already on disk into the hash so that a
// resumed transfer is verified as a whole file.
func (v *checksumVerifier) seed(path string, n int64) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening partial file: %w", err)
	}
	defer f.Close()

	if _, err := io.CopyN(v.hash, f, n); err != nil {
		return fmt.Errorf("hashing partial file: %w", err)
	}

	return nil
}

func (v *checksumVerifier) Verify() error {
	if v == nil {
		return nil
	}

	actual := hex.EncodeToString(v.hash.Sum(nil))
	if actual != v.expected {
		return &Error{
			Err:    ErrChecksumMismatch,
			Detail: fmt.Sprintf("expected %s, got %s", v.expected, actual),
		}
	}

	return nil
}

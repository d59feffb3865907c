package download

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidateDestination checks that path can receive a download that already
// holds completed bytes, creating missing parent directories for a fresh
// download. It touches the filesystem but never the network.
func ValidateDestination(path string, completed int64) error {
	if path == "" {
		return ErrMissingDestination
	}

	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return &Error{Err: ErrInvalidDestination, Detail: fmt.Sprintf("%s is a directory", path)}
		}
		return nil
	}

	if completed > 0 {
		return &Error{Err: ErrResumeTargetMissing, Detail: path}
	}

	if strings.HasSuffix(path, string(os.PathSeparator)) || strings.HasSuffix(path, "/") {
		return &Error{Err: ErrInvalidDestination, Detail: fmt.Sprintf("%s ends with a separator", path)}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &Error{Err: ErrDirectoryCreateFailed, Detail: err.Error()}
	}

	return nil
}

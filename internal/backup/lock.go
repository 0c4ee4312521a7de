package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// lockFileName is the lock file created in the backup directory while
// an apply or rollback runs.
const lockFileName = ".urlport.lock"

// RunLock serializes destructive operations. Apply and rollback both
// acquire it for the backup directory they work against, so a
// rollback can never overlap an in-progress apply on the same file
// set, in this process or another.
type RunLock struct {
	path string
}

// AcquireLock takes the run lock for dir, creating the lock file
// exclusively. It returns ErrLockHeld when the file already exists.
func AcquireLock(dir string) (*RunLock, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	path := filepath.Join(dir, lockFileName)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600) //nolint:gosec // lock path is fixed under the backup dir
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w (lock file %s)", ErrLockHeld, path)
		}
		return nil, err
	}
	_, werr := f.WriteString(strconv.Itoa(os.Getpid()) + "\n")
	cerr := f.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(path)
		if werr != nil {
			return nil, werr
		}
		return nil, cerr
	}
	return &RunLock{path: path}, nil
}

// Release removes the lock file. Releasing twice is harmless.
func (l *RunLock) Release() error {
	if l == nil || l.path == "" {
		return nil
	}
	err := os.Remove(l.path)
	l.path = ""
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

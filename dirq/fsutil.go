package dirq

import (
	"errors"
	"os"
	"sync"
	"syscall"

	"github.com/cern-mig/dirq-go/dirq/dirqerrors"
)

// umaskMu serializes umask mutation across goroutines in one process:
// syscall.Umask changes process-global state, so two queue handles
// with different umasks racing on creation would otherwise pollute
// each other's files (spec §5).
var umaskMu sync.Mutex

// withUmask runs fn with the process umask temporarily set to umask,
// restoring the previous value afterward.
func withUmask(umask int, fn func() error) error {
	umaskMu.Lock()
	defer umaskMu.Unlock()
	old := syscall.Umask(umask)
	defer syscall.Umask(old)
	return fn()
}

// createExclusive creates a regular file at path, failing with
// os.ErrExist if it already exists. Callers treat that as contention,
// not a hard failure.
func createExclusive(path string, perm os.FileMode, umask int) (*os.File, error) {
	var f *os.File
	err := withUmask(umask, func() error {
		var ferr error
		f, ferr = os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, perm)
		return ferr
	})
	return f, err
}

// mkdirExclusive creates a directory at path using mkdir's inherent
// exclusivity as a lock primitive: two processes racing to mkdir the
// same path have exactly one succeed.
func mkdirExclusive(path string, perm os.FileMode, umask int) error {
	return withUmask(umask, func() error {
		return os.Mkdir(path, perm)
	})
}

// mkdirAll creates path and any missing parents, tolerating a
// concurrent creator.
func mkdirAll(path string, perm os.FileMode, umask int) error {
	return withUmask(umask, func() error {
		return os.MkdirAll(path, perm)
	})
}

// mkdirPlain creates a directory applying umask, without requiring
// exclusivity (used for staging paths whose names are already unique,
// e.g. a uuid).
func mkdirPlain(path string, perm os.FileMode, umask int) error {
	return withUmask(umask, func() error {
		return os.Mkdir(path, perm)
	})
}

// writeFilePlain writes data to path applying umask.
func writeFilePlain(path string, data []byte, perm os.FileMode, umask int) error {
	return withUmask(umask, func() error {
		return os.WriteFile(path, data, perm)
	})
}

// renameAtomic wraps os.Rename; on POSIX filesystems this is the
// single atomic commit point for both element creation and lock
// quarantine.
func renameAtomic(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

// listDir lists the entries of path, treating a missing directory as
// an empty listing rather than an error: the directory may not have
// been created yet by any producer (e.g. temporary/ or obsolete/
// before the first Add/purge).
func listDir(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, dirqerrors.Wrap("readdir", path, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

// isNotExist reports whether err indicates a missing file, looking
// through dirqerrors.FilesystemError wrapping.
func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

// isExist reports whether err indicates a path already existing.
func isExist(err error) bool {
	return errors.Is(err, os.ErrExist)
}

package sb3

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrArchiveBusy indicates another process holds the archive lock.
var ErrArchiveBusy = errors.New("archive is being modified by another process")

// Lock is an exclusive advisory lock guarding one archive.
type Lock struct {
	path string
	lock *flock.Flock
}

// LockPath returns the lock file used for archivePath. Lock files live in
// lockDir, keyed by the archive's absolute path; with an empty lockDir the
// lock sits next to the archive.
func LockPath(lockDir, archivePath string) (string, error) {
	abs, err := filepath.Abs(archivePath)
	if err != nil {
		return "", fmt.Errorf("resolve archive path: %w", err)
	}
	if lockDir == "" {
		return abs + ".lock", nil
	}
	sum := sha1.Sum([]byte(abs))
	return filepath.Join(lockDir, hex.EncodeToString(sum[:8])+".lock"), nil
}

// lockAttempts bounds retries when the lock file is replaced underneath us.
const lockAttempts = 3

// AcquireLock takes the lock without blocking. It fails with ErrArchiveBusy
// when another process already holds it.
func AcquireLock(lockDir, archivePath string) (*Lock, error) {
	path, err := LockPath(lockDir, archivePath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	for range lockAttempts {
		fl := flock.New(path)
		ok, err := fl.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%s: %w", archivePath, ErrArchiveBusy)
		}
		if lockedFileIsCurrent(fl, path) {
			return &Lock{path: path, lock: fl}, nil
		}
		// A releasing holder unlinked the file between our open and lock.
		_ = fl.Unlock()
	}
	return nil, fmt.Errorf("%s: %w", archivePath, ErrArchiveBusy)
}

func lockedFileIsCurrent(fl *flock.Flock, path string) bool {
	held, err := fl.Stat()
	if err != nil {
		return false
	}
	onDisk, err := os.Stat(path)
	return err == nil && os.SameFile(held, onDisk)
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Release removes the lock file and drops the lock. The file is removed
// while still locked, so a waiter that opened it earlier sees it is stale.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	fl := l.lock
	l.lock = nil
	removeErr := os.Remove(l.path)
	if errors.Is(removeErr, os.ErrNotExist) {
		removeErr = nil
	}
	return errors.Join(removeErr, fl.Unlock())
}

// Package lock guards against concurrent dashboard instances. Two processes
// sharing one config would fight over plugin reloads and the terminal, so
// `mosaic run` takes a PID lock before entering the alt screen.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// PIDLock is an exclusive flock(2) over a PID file. The lock lives as long as
// the descriptor stays open; the kernel drops it if the process dies.
type PIDLock struct {
	path string
	f    *os.File
}

// AcquirePIDLock takes the lock at lockPath without blocking and records the
// current PID in the file. When another process holds the lock, the error
// names its PID where the file allows reading it.
func AcquirePIDLock(lockPath string) (*PIDLock, error) {
	if lockPath == "" {
		return nil, errors.New("lock path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		owner := readOwner(f)
		_ = f.Close()
		if owner != "" {
			return nil, fmt.Errorf("lock held by pid %s: %w", owner, err)
		}
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	if err := stampPID(f); err != nil {
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		_ = f.Close()
		return nil, err
	}
	return &PIDLock{path: lockPath, f: f}, nil
}

// stampPID replaces the file contents with the current PID.
func stampPID(f *os.File) error {
	if err := f.Truncate(0); err != nil {
		return fmt.Errorf("truncate lock file: %w", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		return fmt.Errorf("seek lock file: %w", err)
	}
	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		return fmt.Errorf("write pid: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync lock file: %w", err)
	}
	return nil
}

func readOwner(f *os.File) string {
	b := make([]byte, 32)
	n, err := f.ReadAt(b, 0)
	if n == 0 && err != nil {
		return ""
	}
	return strings.TrimSpace(string(b[:n]))
}

func (l *PIDLock) Path() string { return l.path }

// Release unlocks and closes the PID file. Safe to call more than once.
func (l *PIDLock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	_ = syscall.Flock(int(l.f.Fd()), syscall.LOCK_UN)
	err := l.f.Close()
	l.f = nil
	return err
}

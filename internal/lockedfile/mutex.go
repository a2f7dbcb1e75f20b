// Package lockedfile provides an inter-process mutex backed by an OS file
// lock.
package lockedfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// A Mutex is an exclusive lock on a file that may be held by at most one
// process at a time. The file is created if needed and never removed.
type Mutex struct {
	Path string
}

// MutexAt returns a new Mutex with Path set to the given non-empty path.
func MutexAt(path string) *Mutex {
	if path == "" {
		panic("lockedfile.MutexAt: path must be non-empty")
	}
	return &Mutex{Path: path}
}

func (mu *Mutex) String() string {
	return fmt.Sprintf("lockedfile.Mutex(%s)", mu.Path)
}

// Lock blocks until it holds mu, and returns the function that releases it.
func (mu *Mutex) Lock() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(mu.Path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(mu.Path, os.O_RDWR|os.O_CREATE, 0o666)
	if err != nil {
		return nil, err
	}
	if err := lock(f, true); err != nil {
		f.Close()
		return nil, &os.PathError{Op: "lock", Path: mu.Path, Err: err}
	}
	return func() {
		unlock(f)
		f.Close()
	}, nil
}

// TryLock acquires mu without blocking. ok is false when another process
// holds it.
func (mu *Mutex) TryLock() (release func(), ok bool, err error) {
	if err := os.MkdirAll(filepath.Dir(mu.Path), 0o755); err != nil {
		return nil, false, err
	}
	f, err := os.OpenFile(mu.Path, os.O_RDWR|os.O_CREATE, 0o666)
	if err != nil {
		return nil, false, err
	}
	if err := lock(f, false); err != nil {
		f.Close()
		if isWouldBlock(err) {
			return nil, false, nil
		}
		return nil, false, &os.PathError{Op: "lock", Path: mu.Path, Err: err}
	}
	return func() {
		unlock(f)
		f.Close()
	}, true, nil
}

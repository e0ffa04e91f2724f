//go:build unix

package flock

import (
	"fmt"
	"syscall"
)

// Exclusive acquires an exclusive non-blocking lock on the file descriptor.
// Returns an error when another process already holds the lock.
func Exclusive(fd uintptr) error {
	if err := syscall.Flock(int(fd), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		return fmt.Errorf("failed to acquire exclusive lock: %w", err)
	}
	return nil
}

// Unlock releases the lock on the file descriptor.
func Unlock(fd uintptr) error {
	if err := syscall.Flock(int(fd), syscall.LOCK_UN); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Package flock provides cross-platform file locking utilities.
//
// The task store holds an advisory lock for the duration of its write phase
// so two orchestrator runs against the same task list serialize instead of
// interleaving. Locks are exclusive and non-blocking, working on both Unix
// and Windows systems.
//
// Usage:
//
//	file, _ := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
//	if err := flock.Exclusive(file.Fd()); err != nil {
//	    // Lock not acquired - file is in use
//	}
//	defer flock.Unlock(file.Fd())
package flock

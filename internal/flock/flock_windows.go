//go:build windows

package flock

import "golang.org/x/sys/windows"

// LockFileEx parameters: lock the first byte of the file.
const (
	lockReserved  = 0
	lockBytesLow  = 1
	lockBytesHigh = 0
)

// Exclusive acquires an exclusive non-blocking lock on the file handle.
func Exclusive(fd uintptr) error {
	return windows.LockFileEx(
		windows.Handle(fd),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		lockReserved,
		lockBytesLow,
		lockBytesHigh,
		&windows.Overlapped{},
	)
}

// Unlock releases the lock on the file handle.
func Unlock(fd uintptr) error {
	return windows.UnlockFileEx(
		windows.Handle(fd),
		lockReserved,
		lockBytesLow,
		lockBytesHigh,
		&windows.Overlapped{},
	)
}

//go:build windows

package store

import "os"

// Advisory locking is not implemented on Windows; the registry still relies
// on atomic replacement there.
func lockFile(f *os.File) error { return nil }

func unlockFile(f *os.File) error { return nil }

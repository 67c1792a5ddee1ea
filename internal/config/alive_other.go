//go:build !windows

package config

import (
	"os"
	"syscall"
)

// processAlive reports whether pid refers to a live process (kill -0).
func processAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

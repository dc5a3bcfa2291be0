//go:build !windows

// Package process terminates browser processes started by the renderer.
package process

import "syscall"

// KillProcessGroup sends SIGKILL to the process group led by pid, taking
// Chrome's helper processes down with it. Errors are ignored.
func KillProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}

//go:build windows

// Package process terminates browser processes started by the renderer.
package process

import (
	"os/exec"
	"strconv"
)

// KillProcessGroup kills pid and its child processes with taskkill /T.
// Errors are ignored.
func KillProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run()
}

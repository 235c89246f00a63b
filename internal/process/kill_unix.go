//go:build !windows

// Package process stops browser process trees left behind by the chrome engine.
package process

import "syscall"

// KillProcessGroup sends SIGKILL to the process group led by pid, reaching
// the Chrome renderer and GPU helpers along with the browser.
func KillProcessGroup(pid int) {
	// Errors ignored: the launcher kills the leader itself afterwards.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}

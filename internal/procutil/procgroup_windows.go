//go:build windows

package procutil

import (
	"errors"
	"os/exec"
	"strconv"
	"syscall"
)

// HideWindow configures cmd to suppress the console window flash on Windows.
// Preserves any existing SysProcAttr fields that were set before this call.
func HideWindow(cmd *exec.Cmd) {
	if cmd == nil {
		return
	}
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.HideWindow = true
}

// PrepareBackground hides the console window of cmd and starts it in a new
// process group.
func PrepareBackground(cmd *exec.Cmd) {
	if cmd == nil {
		return
	}
	HideWindow(cmd)
	cmd.SysProcAttr.CreationFlags |= syscall.CREATE_NEW_PROCESS_GROUP
}

// KillTree terminates cmd and its descendants with taskkill, falling back to
// killing only cmd when taskkill is unavailable.
func KillTree(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return errors.New("process is not running")
	}
	kill := exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(cmd.Process.Pid))
	HideWindow(kill)
	if err := kill.Run(); err == nil {
		return nil
	}
	return cmd.Process.Kill()
}

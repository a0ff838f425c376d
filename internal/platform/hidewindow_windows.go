//go:build windows

package platform

import (
	"os/exec"
	"syscall"
)

// HideWindow configures cmd so that launching it does not flash a console
// window on top of the recorder's own UI.
func HideWindow(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: 0x08000000,
	}
}

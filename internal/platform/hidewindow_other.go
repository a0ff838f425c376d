//go:build !windows

package platform

import "os/exec"

// HideWindow is a no-op outside Windows: there is no console window to hide.
func HideWindow(cmd *exec.Cmd) {
}

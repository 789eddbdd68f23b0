//go:build windows

package ops

import "os/exec"

// openerCommand returns the command that opens path with the default viewer.
// The empty argument is the window title consumed by start.
func openerCommand(path string) *exec.Cmd {
	return exec.Command("cmd", "/C", "start", "", path)
}

//go:build !windows

package ops

import (
	"os/exec"
	"runtime"
)

// openerCommand returns the command that opens path with the desktop's default viewer.
func openerCommand(path string) *exec.Cmd {
	if runtime.GOOS == "darwin" {
		return exec.Command("open", path)
	}
	return exec.Command("xdg-open", path)
}

//go:build unix

package executor

import (
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// configureProcessGroup starts the child in its own process group so a
// timeout kills everything it spawned, not just the direct child.
func configureProcessGroup(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return unix.Kill(-c.Process.Pid, unix.SIGKILL)
	}
	c.WaitDelay = 2 * time.Second
}

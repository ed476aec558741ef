//go:build windows

package executor

import (
	"os/exec"
	"time"
)

func configureProcessGroup(c *exec.Cmd) {
	c.WaitDelay = 2 * time.Second
}

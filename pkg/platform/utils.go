// pkg/platform/utils.go
package platform

import (
	"os/exec"
)

// LookPath is the binary resolver; replaced in tests
var LookPath = exec.LookPath

// CommandExists checks if a command is available in PATH
func CommandExists(cmd string) bool {
	_, err := LookPath(cmd)
	return err == nil
}

// FirstCommand returns the first of names found in PATH, or ""
func FirstCommand(names ...string) string {
	for _, name := range names {
		if CommandExists(name) {
			return name
		}
	}
	return ""
}

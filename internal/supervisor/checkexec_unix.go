//go:build unix

package supervisor

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// checkExecutable confirms path exists and is executable by this
// process, using unix.Access rather than inferring execute permission
// from the mode bits alone (which ignores ACLs and effective uid/gid).
func checkExecutable(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("adb: locate executable %s: %w", path, err)
	}
	if err := unix.Access(path, unix.X_OK); err != nil {
		return fmt.Errorf("adb: %s is not executable: %w", path, err)
	}
	return nil
}

//go:build windows

package supervisor

import (
	"fmt"
	"os"
)

// checkExecutable confirms path exists. Windows has no execute-bit
// concept equivalent to POSIX's X_OK; existence plus the .exe filename
// check already performed by New is sufficient.
func checkExecutable(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("adb: locate executable %s: %w", path, err)
	}
	return nil
}

package supervisor

import (
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// killStrayAdbProcesses enumerates every running process and terminates
// any whose executable name matches adbPath's base name, per spec §4.4's
// "enumerate every local process named adb and terminate each". Errors
// from processes that already exited or refuse to terminate are ignored,
// matching the supervisor's propagation policy (§7): every other failure
// is collected and returned.
func killStrayAdbProcesses(adbPath string) error {
	want := filepathBase(adbPath)

	procs, err := process.Processes()
	if err != nil {
		return fmt.Errorf("adb: enumerate processes: %w", err)
	}

	var errs []string
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue // process exited between enumeration and inspection
		}
		if !strings.EqualFold(name, want) {
			continue
		}
		if err := p.Terminate(); err != nil {
			if isAlreadyExited(err) {
				continue
			}
			errs = append(errs, fmt.Sprintf("pid %d: %v", p.Pid, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("adb: terminate stray adb processes: %s", strings.Join(errs, "; "))
	}
	return nil
}

// isAlreadyExited reports whether err indicates the process had already
// exited or could not be signaled, both of which the supervisor treats
// as non-fatal (§7: "only catches process not terminable / already
// exited when force-killing stray daemons").
func isAlreadyExited(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no such process") ||
		strings.Contains(msg, "not found") ||
		strings.Contains(msg, "process already finished") ||
		strings.Contains(msg, "access is denied") ||
		strings.Contains(msg, "permission denied")
}

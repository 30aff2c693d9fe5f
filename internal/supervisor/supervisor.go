// Package supervisor implements the daemon supervisor (C4): locating,
// validating, version-checking, starting and force-restarting the local
// adb binary.
//
// Grounded on the teacher's process-invocation-free design generalized
// with the line-capture/timeout idiom used by the pack's process-running
// code (haraldrudell-parl/pexec), and on golang.org/x/sys/unix for the
// executable-bit check already present in the teacher's dependency
// closure via the pack.
package supervisor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/rjboer/goadb/internal/adberr"
	"github.com/rjboer/goadb/internal/adblog"
)

// processTimeout bounds every invocation of the adb binary, per spec §4.4.
const processTimeout = 5 * time.Second

// Version is a (major, minor, micro) triple parsed from `adb version`.
type Version [3]int

// Less reports whether v is strictly less than other, compared
// component-wise in lexicographic order.
func (v Version) Less(other Version) bool {
	for i := 0; i < 3; i++ {
		if v[i] != other[i] {
			return v[i] < other[i]
		}
	}
	return false
}

func (v Version) String() string { return fmt.Sprintf("%d.%d.%d", v[0], v[1], v[2]) }

// allowedNames maps an OS family to the exact executable filename the
// supervisor will accept, keyed the same way runtime.GOOS is: a data
// table, not a code branch, so adding a platform is a data change.
var allowedNames = map[string]string{
	"windows": "adb.exe",
	"linux":   "adb",
	"darwin":  "adb",
	"freebsd": "adb",
	"openbsd": "adb",
}

var versionLineRE = regexp.MustCompile(`(\d+)\.(\d+)\.(\d+)\s*$`)

// Supervisor locates, validates and starts a local adb binary.
type Supervisor struct {
	path         string
	requiredMin  Version
	log          adblog.Logger
	skipNameCheck bool
}

// Option configures a Supervisor at construction time.
type Option func(*Supervisor)

// WithLogger injects a structured logger; the default discards everything.
func WithLogger(l adblog.Logger) Option {
	return func(s *Supervisor) { s.log = l }
}

// SkipNameCheck disables the filename validation (but not the existence
// check), for callers who know their binary is named unusually.
func SkipNameCheck() Option {
	return func(s *Supervisor) { s.skipNameCheck = true }
}

// New validates path against the platform's expected adb filename and
// confirms it exists and is executable. requiredMin is the minimum
// acceptable daemon version; get_version() enforces it.
func New(path string, requiredMin Version, opts ...Option) (*Supervisor, error) {
	s := &Supervisor{path: path, requiredMin: requiredMin, log: adblog.NoOp()}
	for _, opt := range opts {
		opt(s)
	}

	if !s.skipNameCheck {
		want, ok := allowedNames[runtime.GOOS]
		if !ok {
			return nil, adberr.ErrUnsupportedPlatform
		}
		base := filepathBase(path)
		if runtime.GOOS == "windows" {
			if !strings.EqualFold(base, want) {
				return nil, fmt.Errorf("adb: executable name %q does not match expected %q: %w", base, want, adberr.ErrUnsupportedPlatform)
			}
		} else if base != want {
			return nil, fmt.Errorf("adb: executable name %q does not match expected %q: %w", base, want, adberr.ErrUnsupportedPlatform)
		}
	}

	if err := checkExecutable(path); err != nil {
		return nil, err
	}
	return s, nil
}

func filepathBase(path string) string {
	i := strings.LastIndexAny(path, `/\`)
	if i < 0 {
		return path
	}
	return path[i+1:]
}

// run invokes the adb binary with args under the five-second process
// timeout, returning captured stdout/stderr lines.
func (s *Supervisor) run(args ...string) (stdoutLines, stderrLines []string, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	stdoutLines = splitLines(stdout.String())
	stderrLines = splitLines(stderr.String())

	if ctx.Err() == context.DeadlineExceeded {
		return stdoutLines, stderrLines, fmt.Errorf("%w: %s timed out after %s", adberr.ErrTimeout, strings.Join(append([]string{s.path}, args...), " "), processTimeout)
	}
	if runErr == nil {
		return stdoutLines, stderrLines, nil
	}
	if exitErr, ok := runErr.(*exec.ExitError); ok {
		return stdoutLines, stderrLines, &adberr.ProcessFailed{Code: exitErr.ExitCode(), Command: strings.Join(append([]string{s.path}, args...), " ")}
	}
	return stdoutLines, stderrLines, fmt.Errorf("adb: invoking %s: %w", s.path, runErr)
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// GetVersion runs "adb version", parses the first line that ends in a
// dotted major.minor.micro triple (trailing whitespace allowed, see
// versionLineRE) and compares it against the configured minimum.
func (s *Supervisor) GetVersion() (Version, error) {
	lines, _, err := s.run("version")
	if err != nil {
		return Version{}, err
	}
	for _, line := range lines {
		m := versionLineRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		v := Version{}
		for i := 0; i < 3; i++ {
			n, _ := strconv.Atoi(m[i+1])
			v[i] = n
		}
		if v.Less(s.requiredMin) {
			return v, &adberr.VersionTooOld{Found: v, Required: s.requiredMin}
		}
		return v, nil
	}
	return Version{}, adberr.ErrVersionUnknown
}

// StartServer runs "adb start-server". If the first attempt fails, it
// enumerates and terminates every local process named adb (ignoring
// "already exited" / "cannot terminate" outcomes; any other kill failure
// is logged, not returned) and then retries start-server with
// cenkalti/backoff's exponential strategy (100ms initial interval, at
// most 2s elapsed), returning the last failure if no retry succeeds.
func (s *Supervisor) StartServer() error {
	_, _, err := s.run("start-server")
	if err == nil {
		s.log.Info("start-server: ok")
		return nil
	}
	s.log.Warn("start-server failed, killing stray adb processes", adblog.Field{Key: "err", Value: err.Error()})

	if killErr := killStrayAdbProcesses(s.path); killErr != nil {
		s.log.Warn("kill stray adb processes", adblog.Field{Key: "err", Value: killErr.Error()})
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxElapsedTime = 2 * time.Second

	var lastErr error
	retryErr := backoff.Retry(func() error {
		_, _, runErr := s.run("start-server")
		lastErr = runErr
		if runErr != nil && adberr.IsRecoverable(runErr) {
			return nil // AdbFail-shaped failures are not ours to retry here
		}
		return runErr
	}, b)
	if retryErr != nil {
		return retryErr
	}
	return lastErr
}

// Kill runs "adb kill-server".
func (s *Supervisor) Kill() error {
	_, _, err := s.run("kill-server")
	return err
}

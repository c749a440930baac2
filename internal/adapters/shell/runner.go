// Package shell runs app wrapper targets and interactive dev shells.
package shell

import (
	"context"
	"errors"
	"io"
	"maps"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/creack/pty"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"golang.org/x/term"
)

// allowListedEnvVars are the host variables Run passes through. Everything else comes
// from the environment the caller provides.
var allowListedEnvVars = map[string]struct{}{
	"HOME": {},
	"TERM": {},
	"USER": {},
	"PATH": {},
	"LANG": {},
}

var _ ports.ProcessRunner = (*Runner)(nil)

// Runner implements ports.ProcessRunner using os/exec and a PTY for interactive sessions.
type Runner struct {
	logger ports.Logger

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// NewRunner creates a Runner attached to the process's standard streams.
func NewRunner(logger ports.Logger) *Runner {
	return NewRunnerWithIO(logger, os.Stdin, os.Stdout, os.Stderr)
}

// NewRunnerWithIO creates a Runner attached to the given streams.
func NewRunnerWithIO(logger ports.Logger, stdin io.Reader, stdout, stderr io.Writer) *Runner {
	return &Runner{logger: logger, stdin: stdin, stdout: stdout, stderr: stderr}
}

// Run executes argv with a hermetic environment: env on top of an allow-listed subset of
// the host environment.
func (r *Runner) Run(ctx context.Context, argv, env []string) error {
	cmd, err := command(ctx, argv, resolveEnvironment(filterSystemEnv(os.Environ()), env))
	if err != nil {
		return err
	}
	cmd.Stdin = r.stdin
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr
	return exitError(argv, cmd.Run())
}

// Interactive executes argv with env on top of the full host environment. When stdin is a
// terminal the process gets its own PTY.
func (r *Runner) Interactive(ctx context.Context, argv, env []string) error {
	cmd, err := command(ctx, argv, resolveEnvironment(hostEnv(os.Environ()), env))
	if err != nil {
		return err
	}

	stdin, ok := r.stdin.(*os.File)
	if !ok || !term.IsTerminal(int(stdin.Fd())) {
		cmd.Stdin = r.stdin
		cmd.Stdout = r.stdout
		cmd.Stderr = r.stderr
		return exitError(argv, cmd.Run())
	}
	return exitError(argv, r.runPTY(cmd, stdin))
}

func (r *Runner) runPTY(cmd *exec.Cmd, stdin *os.File) error {
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = ptmx.Close() }()

	resize := make(chan os.Signal, 1)
	signal.Notify(resize, syscall.SIGWINCH)
	go func() {
		for range resize {
			if err := pty.InheritSize(stdin, ptmx); err != nil {
				r.logger.Warn("failed to resize pty: " + err.Error())
			}
		}
	}()
	resize <- syscall.SIGWINCH

	state, err := term.MakeRaw(int(stdin.Fd()))
	if err != nil {
		r.logger.Warn("failed to switch terminal to raw mode: " + err.Error())
	} else {
		defer func() { _ = term.Restore(int(stdin.Fd()), state) }()
	}

	go func() { _, _ = io.Copy(ptmx, stdin) }()
	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		_, _ = io.Copy(r.stdout, ptmx)
	}()

	err = cmd.Wait()
	// Closing the master ends the copy loop once the remaining output is drained.
	_ = ptmx.Close()
	<-ioDone
	signal.Stop(resize)
	close(resize)
	return err
}

func command(ctx context.Context, argv, env []string) (*exec.Cmd, error) {
	if len(argv) == 0 {
		return nil, domain.Annotate(domain.ErrProcessFailed, "empty command")
	}

	name := argv[0]
	executable := name
	if !filepath.IsAbs(name) {
		if lp, err := lookPath(name, env); err == nil {
			executable = lp
		}
	}

	cmd := exec.CommandContext(ctx, executable, argv[1:]...) //nolint:gosec // user provided command
	cmd.Args[0] = name
	cmd.Env = env
	return cmd, nil
}

func exitError(argv []string, err error) error {
	if err == nil {
		return nil
	}
	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	return domain.Annotate(domain.ErrProcessFailed, err.Error(), "command", argv[0], "exit_code", exitCode)
}

// resolveEnvironment applies env on top of base. PATH entries are prepended.
func resolveEnvironment(base map[string]string, env []string) []string {
	for _, entry := range env {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if sysPath, exists := base[k]; k == "PATH" && exists && sysPath != "" {
			base[k] = v + string(os.PathListSeparator) + sysPath
			continue
		}
		base[k] = v
	}

	result := make([]string, 0, len(base))
	for _, k := range slices.Sorted(maps.Keys(base)) {
		result = append(result, k+"="+base[k])
	}
	return result
}

func filterSystemEnv(sysEnv []string) map[string]string {
	envMap := make(map[string]string)
	for k, v := range hostEnv(sysEnv) {
		if _, allowed := allowListedEnvVars[k]; allowed {
			envMap[k] = v
		}
	}
	return envMap
}

func hostEnv(sysEnv []string) map[string]string {
	envMap := make(map[string]string, len(sysEnv))
	for _, entry := range sysEnv {
		if k, v, ok := strings.Cut(entry, "="); ok {
			envMap[k] = v
		}
	}
	return envMap
}

// lookPath searches for an executable in the directories named by the PATH entry of env.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if p, ok := strings.CutPrefix(e, "PATH="); ok {
			path = p
			break
		}
	}
	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}

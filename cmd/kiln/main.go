// Package main is the entry point for kiln.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/cmd/kiln/commands"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/core/domain"
	_ "go.trai.ch/kiln/internal/wiring"
	"go.trai.ch/zerr"
)

// exitInterrupted is the conventional exit code after SIGINT.
const exitInterrupted = 130

// ComponentProvider is a function that returns the application components.
type ComponentProvider func(context.Context) (*app.Components, func(), error)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stderr, func(ctx context.Context) (*app.Components, func(), error) {
		c, _, err := graft.ExecuteFor[*app.Components](ctx)
		if err != nil {
			return nil, nil, err
		}
		return c, func() { _ = c.Telemetry.Close() }, nil
	}))
}

func run(
	ctx context.Context,
	args []string,
	stderr io.Writer,
	provider ComponentProvider,
	opts ...func(*app.App),
) int {
	// 0. Context with signal handling
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 1. Initialize application components
	components, cleanup, err := provider(ctx)
	if err != nil {
		// Logger is not available yet if initialization failed
		_, _ = fmt.Fprintln(stderr, "Error: "+err.Error())
		return 1
	}
	defer cleanup()

	for _, opt := range opts {
		opt(components.App)
	}

	// 2. Interface - CLI
	logs, _ := components.Logger.(commands.LogConfigurer)
	cli := commands.New(components.App, logs)
	cli.SetArgs(args)
	cli.SetOutput(os.Stdout, stderr)

	// 3. Execution
	err = cli.Execute(ctx)
	if err == nil {
		return 0
	}
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return exitInterrupted
	}
	if code, ok := processExitCode(err); ok {
		// The process reported its own failure.
		return code
	}
	if kind := domain.Kind(err); kind != "Internal" {
		err = zerr.Wrap(err, kind)
	}
	components.Logger.Error(err)
	return 1
}

// processExitCode returns the exit code of a failed child process started by run.
func processExitCode(err error) (int, bool) {
	if !errors.Is(err, domain.ErrProcessFailed) {
		return 0, false
	}
	var zErr *zerr.Error
	for current := err; errors.As(current, &zErr); current = errors.Unwrap(zErr) {
		if code, ok := zErr.Metadata()["exit_code"].(int); ok && code > 0 {
			return code, true
		}
	}
	return 0, false
}

package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/pipeline"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

type deps struct {
	loader  *mocks.MockConfigLoader
	logger  *mocks.MockLogger
	scanner *mocks.MockSourceScanner
	locks   *mocks.MockLockReader
	store   *mocks.MockDerivationStore
	runtime *mocks.MockBuildRuntime
	runner  *mocks.MockProcessRunner
}

func newProvider(t *testing.T) (*deps, ComponentProvider) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	ctrl := gomock.NewController(t)
	d := &deps{
		loader:  mocks.NewMockConfigLoader(ctrl),
		logger:  mocks.NewMockLogger(ctrl),
		scanner: mocks.NewMockSourceScanner(ctrl),
		locks:   mocks.NewMockLockReader(ctrl),
		store:   mocks.NewMockDerivationStore(ctrl),
		runtime: mocks.NewMockBuildRuntime(ctrl),
		runner:  mocks.NewMockProcessRunner(ctrl),
	}
	pipe := pipeline.New(d.scanner, d.locks, mocks.NewMockToolCatalog(ctrl), d.store, telemetry.NewNoop())
	application := app.New(d.loader, pipe, d.store, d.runtime, d.runner, d.scanner, mocks.NewMockWatcher(ctrl), d.logger).
		WithOutput(new(bytes.Buffer)).
		WithSystem("x86_64-linux")

	closed := false
	t.Cleanup(func() {
		assert.True(t, closed, "cleanup was not called")
	})
	return d, func(_ context.Context) (*app.Components, func(), error) {
		return &app.Components{
			App:       application,
			Logger:    d.logger,
			Telemetry: telemetry.NewNoop(),
		}, func() { closed = true }, nil
	}
}

// TestRun_Success verifies that the run function returns 0 when the command succeeds.
func TestRun_Success(t *testing.T) {
	_, provider := newProvider(t)

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, provider)
	assert.Equal(t, 0, exitCode)
}

// TestRun_InitializationError verifies that run returns 1 when component initialization fails.
func TestRun_InitializationError(t *testing.T) {
	provider := func(_ context.Context) (*app.Components, func(), error) {
		return nil, nil, errors.New("init failed")
	}

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, provider)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "Error: init failed")
}

// TestRun_ExecutionError verifies that run logs the error and returns 1 when a command fails.
func TestRun_ExecutionError(t *testing.T) {
	d, provider := newProvider(t)
	d.loader.EXPECT().Load(".").Return(nil, domain.ErrConfigNotFound)
	d.logger.EXPECT().Error(gomock.Any()).Do(func(err error) {
		assert.ErrorIs(t, err, domain.ErrConfigNotFound)
	})

	exitCode := run(context.Background(), []string{"plan"}, new(bytes.Buffer), provider)
	assert.Equal(t, 1, exitCode)
}

// TestRun_SurfacesKind verifies that a classified failure is logged under its kind.
func TestRun_SurfacesKind(t *testing.T) {
	d, provider := newProvider(t)
	d.loader.EXPECT().Load(".").Return(nil,
		domain.Annotate(domain.ErrLockFileInvalid, "serde 1.0.210 is locked twice", "path", "Cargo.lock"))
	d.logger.EXPECT().Error(gomock.Any()).Do(func(err error) {
		var zErr *zerr.Error
		if assert.ErrorAs(t, err, &zErr) {
			assert.Equal(t, "LockFileInvalid", zErr.Message())
		}
		assert.ErrorIs(t, err, domain.ErrLockFileInvalid)
	})

	exitCode := run(context.Background(), []string{"plan"}, new(bytes.Buffer), provider)
	assert.Equal(t, 1, exitCode)
}

// TestRun_ProcessExitCode verifies that run exits with the code of the program it ran.
func TestRun_ProcessExitCode(t *testing.T) {
	d, provider := newProvider(t)
	d.loader.EXPECT().Load(".").Return(nil,
		zerr.With(domain.Annotate(domain.ErrProcessFailed, "exit status 3", "command", "zola", "exit_code", 3), "system", "x86_64-linux"))

	exitCode := run(context.Background(), []string{"run"}, new(bytes.Buffer), provider)
	assert.Equal(t, 3, exitCode)
}

func TestProcessExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantOK   bool
	}{
		{
			name:     "annotated",
			err:      domain.Annotate(domain.ErrProcessFailed, "exit status 2", "exit_code", 2),
			wantCode: 2,
			wantOK:   true,
		},
		{
			name:     "wrapped",
			err:      zerr.Wrap(domain.Annotate(domain.ErrProcessFailed, "exit status 4", "exit_code", 4), "run failed"),
			wantCode: 4,
			wantOK:   true,
		},
		{
			name: "not started",
			err:  domain.Annotate(domain.ErrProcessFailed, "executable not found", "exit_code", -1),
		},
		{
			name: "other failure",
			err:  domain.ErrRealizeFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := processExitCode(tt.err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

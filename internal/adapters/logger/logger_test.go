package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/logger"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// newTestLogger creates a logger with an injected bytes.Buffer for isolated testing.
// It also sets NO_COLOR=1 to ensure deterministic output without ANSI escape codes.
func newTestLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	lg := logger.New()
	lg.SetOutput(buf)
	return lg, buf
}

func TestLogger_Info(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Info("x86_64-linux 0c5b8vw40dy178xlpddw65q9gf1h2186")

	g := goldie.New(t)
	g.Assert(t, "info_basic", buf.Bytes())
}

func TestLogger_Warn(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Warn("kiln.yaml declares version \"2\"")

	g := goldie.New(t)
	g.Assert(t, "warn_basic", buf.Bytes())
}

func TestLogger_Error(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		goldenName string
	}{
		{
			name:       "simple error",
			err:        os.ErrPermission,
			goldenName: "error_simple",
		},
		{
			name: "annotated sentinel",
			err: domain.Annotate(domain.ErrLockFileInvalid,
				"dependency serde is declared by the manifest but not locked", "dependency", "serde"),
			goldenName: "error_chain",
		},
		{
			name:       "multiline error",
			err:        zerr.Wrap(errors.New("yaml: unmarshal errors:\n  line 3: cannot unmarshal"), "failed to parse config file"),
			goldenName: "error_multiline",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, buf := newTestLogger(t)
			lg.Error(tt.err)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestLogger_ErrorNil(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Error(nil)
	assert.Empty(t, buf.String())
}

func TestLogger_JSON(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.SetJSON(true)
	lg.Error(domain.Annotate(domain.ErrToolUnavailable, "jq is not in the index"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "ERROR", record["level"])
	assert.Equal(t, "operation failed", record["msg"])
	assert.Equal(t, "ToolUnavailable", record["kind"])
	assert.Equal(t, "jq is not in the index: tool unavailable", record["error"])
}

func TestLogger_SetLevel(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.SetLevel(domain.LogLevelWarn)

	lg.Info("hidden")
	lg.Warn("shown")

	assert.Equal(t, "! shown\n", buf.String())
}

func TestLogger_Debug(t *testing.T) {
	lg, buf := newTestLogger(t)

	lg.Debug("hidden")
	assert.Empty(t, buf.String())

	lg.SetLevel(domain.LogLevelDebug)
	lg.Debug("x86_64-linux plan: cached")
	assert.Equal(t, "● x86_64-linux plan: cached\n", buf.String())
}

func TestPrettyHandler_Attrs(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	buf := &bytes.Buffer{}
	log := slog.New(logger.NewPrettyHandler(buf, nil)).
		With("system", "x86_64-linux").
		WithGroup("stage")

	log.Warn("store record ignored\nstore record is corrupt", "name", "plan")

	assert.Equal(t, "! store record ignored\nstore record is corrupt system=x86_64-linux stage.name=plan\n", buf.String())
}

func TestCollectErrorEntries(t *testing.T) {
	err := zerr.With(zerr.Wrap(domain.Annotate(domain.ErrRealizeFailed, "builder failed"), "build x86_64-linux"),
		"system", "x86_64-linux")

	assert.Equal(t, []string{"build x86_64-linux", "builder failed", "failed to realize derivation"},
		logger.CollectErrorEntries(err))
}

func TestFormatErrorEntries(t *testing.T) {
	got := logger.FormatErrorEntries([]string{"outer", "inner\nmore"})
	assert.Equal(t, "Error: outer\n\n  Caused by:\n    → inner\n      more", got)
}

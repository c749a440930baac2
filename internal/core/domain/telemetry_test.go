package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/kiln/internal/core/domain"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  domain.LogLevel
	}{
		{"debug", domain.LogLevelDebug},
		{"DEBUG", domain.LogLevelDebug},
		{"info", domain.LogLevelInfo},
		{"warning", domain.LogLevelWarn},
		{" warn ", domain.LogLevelWarn},
		{"error", domain.LogLevelError},
		{"", domain.LogLevelInfo},
		{"verbose", domain.LogLevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := domain.ParseLogLevel(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, domain.ParseLogLevel(got.String()))
		})
	}
}

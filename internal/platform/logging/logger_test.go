package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		level   string
		want    zapcore.Level
		wantErr bool
	}{
		{name: "production info", env: "production", level: "info", want: zapcore.InfoLevel},
		{name: "development debug", env: "development", level: "debug", want: zapcore.DebugLevel},
		{name: "warn", env: "production", level: "warn", want: zapcore.WarnLevel},
		{name: "invalid level", env: "production", level: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restore := zap.ReplaceGlobals(zap.NewNop())
			defer restore()

			log, err := New(tt.env, tt.level)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			assert.True(t, log.Core().Enabled(tt.want))
			assert.Same(t, log, zap.L(), "logger is installed globally")
		})
	}
}

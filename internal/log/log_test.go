package log_test

import (
	"strings"
	"testing"

	"github.com/Guizzs26/voting_registry/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var levelStrings = map[log.LogLevel]string{
	log.DEBUG: "debug",
	log.INFO:  "info",
	log.WARN:  "warn",
	log.ERROR: "error",
}

func TestLogLevelString(t *testing.T) {
	for level, str := range levelStrings {
		t.Run("level "+str, func(t *testing.T) {
			assert.Equal(t, str, level.String())
		})
	}
}

func TestLogLevelSet(t *testing.T) {
	for level, str := range levelStrings {
		t.Run("level "+str, func(t *testing.T) {
			var l log.LogLevel
			require.NoError(t, l.Set(str))
			assert.Equal(t, level, l)
		})
		uppercase := strings.ToUpper(str)
		t.Run("level "+uppercase, func(t *testing.T) {
			var l log.LogLevel
			require.NoError(t, l.UnmarshalText([]byte(uppercase)))
			assert.Equal(t, level, l)
		})
	}

	t.Run("unknown log level", func(t *testing.T) {
		l := new(log.LogLevel)
		require.ErrorIs(t, l.Set("blah"), log.ErrUnknownLogLevel)
	})
}

func TestLogLevelType(t *testing.T) {
	assert.Equal(t, "LogLevel", new(log.LogLevel).Type())
}

func TestZapLogger(t *testing.T) {
	for level, str := range levelStrings {
		t.Run("level "+str, func(t *testing.T) {
			_, err := log.NewZapLogger(level, true)
			require.NoError(t, err)
		})
	}
}

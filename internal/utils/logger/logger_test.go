package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelForEnvironment(t *testing.T) {
	cases := map[string]zerolog.Level{
		"dev":     zerolog.TraceLevel,
		"TEST":    zerolog.TraceLevel,
		"prod":    zerolog.InfoLevel,
		"staging": zerolog.InfoLevel,
	}
	for env, want := range cases {
		assert.Equal(t, want, LevelForEnvironment(env), env)
	}
}

func TestSugarBeforeInit(t *testing.T) {
	require.Nil(t, Logger)
	s := Sugar()
	require.NotNil(t, s)
	s.Infow("no-op logger accepts calls", "key", "value")
}

func TestNewZapLogger(t *testing.T) {
	l := newZapLogger(zerolog.DebugLevel)
	require.NotNil(t, l)
	assert.True(t, l.Core().Enabled(-1))

	l = newZapLogger(zerolog.InfoLevel)
	assert.False(t, l.Core().Enabled(-1))
}

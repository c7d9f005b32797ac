package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/enrollkit/pkg/config"
)

type testConfig struct {
	Addr     string        `env:"TEST_CFG_ADDR" envDefault:":8080"`
	Cooldown time.Duration `env:"TEST_CFG_COOLDOWN" envDefault:"60s"`
	Secret   string        `env:"TEST_CFG_SECRET,required"`
}

func TestLoad(t *testing.T) {
	t.Run("applies defaults and env overrides", func(t *testing.T) {
		t.Setenv("TEST_CFG_SECRET", "s3cret")
		t.Setenv("TEST_CFG_COOLDOWN", "90s")

		var cfg testConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, 90*time.Second, cfg.Cooldown)
		assert.Equal(t, "s3cret", cfg.Secret)
	})

	t.Run("fails on missing required variable", func(t *testing.T) {
		var cfg testConfig
		err := config.Load(&cfg)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("rejects nil pointer", func(t *testing.T) {
		err := config.Load[testConfig](nil)
		assert.ErrorIs(t, err, config.ErrNilPointer)
	})
}

func TestMustLoad(t *testing.T) {
	t.Run("panics on missing required variable", func(t *testing.T) {
		assert.Panics(t, func() {
			var cfg testConfig
			config.MustLoad(&cfg)
		})
	})
}

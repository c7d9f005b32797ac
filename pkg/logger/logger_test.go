package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/enrollkit/pkg/logger"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json output with static attrs", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithAttr(slog.String("service", "enrollkit")),
		)
		log.Info("hello", logger.SessionID("sess-1"))

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "hello", record["msg"])
		assert.Equal(t, "enrollkit", record["service"])
		assert.Equal(t, "sess-1", record["session_id"])
	})

	t.Run("default level filters debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.WithOutput(&buf))
		log.Debug("noise")
		assert.Zero(t, buf.Len())
	})

	t.Run("environment preset", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithEnvironment("development", "enrollkit"),
		)
		log.Debug("visible in dev")
		assert.Contains(t, buf.String(), "visible in dev")
		assert.Contains(t, buf.String(), "env=development")
	})
}

func TestAttrs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.Attr{}, logger.Error(nil))
	assert.Equal(t, "error", logger.Error(errors.New("boom")).Key)
	assert.Equal(t, "component", logger.Component("registration").Key)
	assert.Equal(t, "channel", logger.Channel("email").Key)
	assert.Equal(t, "step", logger.Step("initiated").Key)
	assert.Equal(t, "account_id", logger.AccountID("acc-1").Key)
}

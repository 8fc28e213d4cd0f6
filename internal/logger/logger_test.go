package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf)

	log.Info().Str("batch_id", "BATCH_1").Msg("import started")

	out := buf.String()
	assert.Contains(t, out, `"batch_id":"BATCH_1"`)
	assert.Contains(t, out, `"message":"import started"`)
	assert.Contains(t, out, `"time"`)
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf)

	ctx := WithContext(context.Background(), log)
	fromCtx := FromContext(ctx)
	fromCtx.Info().Msg("from context")

	assert.Contains(t, buf.String(), "from context")
}

func TestFromContext_Missing(t *testing.T) {
	log := FromContext(context.Background())
	assert.Equal(t, zerolog.Disabled, log.GetLevel())
}

func TestParseLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	ParseLevel("debug")
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	ParseLevel("")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

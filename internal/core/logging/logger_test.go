package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	l := Component("timer")
	l.Info().Msg("session started")

	entry := decode(t, &buf)
	assert.Equal(t, "timer", entry["cmp"])
	assert.Equal(t, "session started", entry["message"])
}

func TestContextHook(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		want map[string]any
	}{
		{
			name: "actor and role",
			ctx:  WithActor(context.Background(), "bob", "manager"),
			want: map[string]any{"actor": "bob", "role": "manager"},
		},
		{
			name: "actor without role",
			ctx:  WithActor(context.Background(), "alice", ""),
			want: map[string]any{"actor": "alice"},
		},
		{
			name: "bare context",
			ctx:  context.Background(),
			want: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := zerolog.New(&buf).Hook(ContextHook{})
			logger.Info().Ctx(tt.ctx).Msg("x")

			entry := decode(t, &buf)
			delete(entry, "level")
			delete(entry, "message")
			assert.Equal(t, tt.want, entry)
		})
	}
}

package socketio

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServerRequiresAuthenticator(t *testing.T) {
	_, err := NewServer(nil, slog.New(slog.NewTextHandler(io.Discard, nil)), Options{RequireAuth: true})
	require.Error(t, err)
}

func TestServerLifecycle(t *testing.T) {
	s, err := NewServer(nil, slog.New(slog.NewTextHandler(io.Discard, nil)), Options{HeartbeatInterval: 10 * time.Millisecond})
	require.NoError(t, err)

	assert.NotNil(t, s.GetHandler())
	assert.Equal(t, 0, s.ConnectionCount())

	s.Broadcast(EventDayUnlocked, map[string]any{"dayNumber": 2})
	s.EmitToUser("", EventProgressUpdated, nil)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestDayArg(t *testing.T) {
	tests := []struct {
		name string
		args []any
		want int
		ok   bool
	}{
		{"empty", nil, 0, false},
		{"number", []any{float64(4)}, 4, true},
		{"string", []any{" 7 "}, 7, true},
		{"object", []any{map[string]any{"dayNumber": float64(3)}}, 3, true},
		{"zero", []any{float64(0)}, 0, false},
		{"garbage", []any{"x"}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := dayArg(tt.args)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestBearer(t *testing.T) {
	assert.Equal(t, "abc", bearer("Bearer abc"))
	assert.Empty(t, bearer("Basic abc"))
	assert.Empty(t, bearer(""))
}

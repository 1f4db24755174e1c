package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewWritesConsoleAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shrimpd.log")
	var console bytes.Buffer

	cfg := DefaultConfig()
	cfg.LogFile = path

	log, err := newWithConsole(cfg, zapcore.AddSync(&console))
	require.NoError(t, err)

	authority, owner := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()
	WithPlayer(log.Logger, authority, owner).Info("hatched", zap.Uint64("shrimp", 3))
	log.WithOperation("buy").Info("starting")
	require.NoError(t, log.Close())

	assert.Contains(t, console.String(), "hatched")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "hatched", first["msg"])
	assert.Equal(t, owner.String(), first["player"])
	assert.Equal(t, float64(3), first["shrimp"])

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "buy", second["operation"])
	assert.NotEmpty(t, second["correlation_id"])
}

func TestConsoleOnly(t *testing.T) {
	var console bytes.Buffer
	log, err := newWithConsole(&Config{}, zapcore.AddSync(&console))
	require.NoError(t, err)

	log.Debug("hidden")
	log.LogError("failed", assert.AnError)
	end := log.TrackPerformance("noop")
	end()
	require.NoError(t, log.Close())

	out := console.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, assert.AnError.Error())
}

func TestQuietSkipsConsole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tui.log")
	var console bytes.Buffer
	log, err := newWithConsole(&Config{LogFile: path, MaxSize: 1, Quiet: true}, zapcore.AddSync(&console))
	require.NoError(t, err)

	log.Info("refreshed")
	require.NoError(t, log.Close())

	assert.Empty(t, console.String())
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "refreshed")
}

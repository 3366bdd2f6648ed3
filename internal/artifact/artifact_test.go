package artifact

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTempPath_Unique(t *testing.T) {
	a := TempPath("aceceed-ptt", ".wav")
	b := TempPath("aceceed-ptt", ".wav")
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(filepath.Base(a), "aceceed-ptt-"))
	assert.Equal(t, ".wav", filepath.Ext(a))
}

func TestTempPath_CustomDir(t *testing.T) {
	dir := t.TempDir()
	old := Dir
	Dir = dir
	t.Cleanup(func() { Dir = old })

	assert.Equal(t, dir, filepath.Dir(TempPath("x", "")))
}

func TestSafeRemove(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a.wav")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))

	require.NoError(t, SafeRemove(p))
	_, err := os.Stat(p)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, SafeRemove(p))
	assert.NoError(t, SafeRemove(""))
}

func TestCleanup_LogsFailures(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "busy")
	require.NoError(t, os.Mkdir(nested, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "child"), []byte("x"), 0o600))

	core, logs := observer.New(zapcore.WarnLevel)
	Cleanup(zap.New(core), nested, filepath.Join(dir, "missing"))
	assert.Equal(t, 1, logs.FilterMessage("failed to remove artifact").Len())
}

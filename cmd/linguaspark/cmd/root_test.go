package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguaspark/linguaspark-go/internal/cache"
	"github.com/linguaspark/linguaspark-go/internal/config"
	"github.com/linguaspark/linguaspark-go/internal/logging"
)

func TestReadText(t *testing.T) {
	got, err := readText(strings.NewReader("ignored"), []string{"hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	got, err = readText(strings.NewReader("from stdin\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, "from stdin", got)
}

func TestNewResultCache(t *testing.T) {
	cfg := config.DefaultConfig()

	rc, err := newResultCache(cfg, logging.Discard())
	require.NoError(t, err)
	assert.Nil(t, rc)

	cfg.CacheEnabled = true
	rc, err = newResultCache(cfg, logging.Discard())
	require.NoError(t, err)
	_, ok := rc.(*cache.LRU)
	assert.True(t, ok)
	require.NoError(t, rc.Close())

	cfg.RedisURL = "redis://127.0.0.1:1/0"
	rc, err = newResultCache(cfg, logging.Discard())
	require.NoError(t, err)
	_, ok = rc.(*cache.LRU)
	assert.True(t, ok, "unreachable redis falls back to the local cache")
}

func TestModelsCommandListsDirectories(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "enfr")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range []string{"vocab.enfr.spm", "model.enfr.intgemm8.bin", "lex.50.50.enfr.s2t.bin"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	appConfig = config.DefaultConfig()
	appConfig.ModelsDir = root
	t.Cleanup(func() { appConfig = nil })

	var out bytes.Buffer
	modelsCmd.SetOut(&out)
	require.NoError(t, runModels(modelsCmd, nil))
	assert.Contains(t, out.String(), "en->fr")
	assert.Contains(t, out.String(), "model.enfr.intgemm8.bin")
	assert.Contains(t, out.String(), "lex.50.50.enfr.s2t.bin")
}

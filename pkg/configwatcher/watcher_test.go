package configwatcher

import (
	"context"
	"course_market_backend/internal/config"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, file, mode string) {
	t.Helper()
	content := "server:\n  port: \"8080\"\n  mode: " + mode + "\nstorage:\n  type: minio\n"
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))
}

func TestWatchConfigReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	writeConfig(t, file, "debug")

	ctx, cancel := context.WithCancel(context.Background())
	reloaded := make(chan *config.Config, 8)
	done := make(chan error, 1)
	go func() {
		done <- WatchConfig(ctx, file, func(cfg *config.Config) { reloaded <- cfg })
	}()

	// 防抖 1s，重写间隔需大于防抖时间
	time.Sleep(300 * time.Millisecond)
	writeConfig(t, file, "test")
	deadline := time.After(15 * time.Second)
	tick := time.NewTicker(3 * time.Second)
	defer tick.Stop()

	var got *config.Config
	for got == nil {
		select {
		case got = <-reloaded:
		case <-tick.C:
			writeConfig(t, file, "test")
		case <-deadline:
			t.Fatal("config was not reloaded")
		}
	}
	assert.Equal(t, "test", got.Server.Mode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchConfigMissingDir(t *testing.T) {
	err := WatchConfig(context.Background(), filepath.Join(t.TempDir(), "nope", "config.yaml"), func(*config.Config) {})
	assert.Error(t, err)
}

package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/watcher"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func startWatcher(t *testing.T, root string) (*watcher.Watcher, <-chan ports.WatchEvent) {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Warn(gomock.Any()).AnyTimes()

	w, err := watcher.NewWatcher(log, 20*time.Millisecond, ".git", "target")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx, root))

	out := make(chan ports.WatchEvent, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range w.Events() {
			select {
			case out <- ev:
			default:
			}
		}
	}()
	t.Cleanup(func() {
		cancel()
		_ = w.Stop()
		<-done
	})
	return w, out
}

func waitFor(t *testing.T, events <-chan ports.WatchEvent, path string) ports.WatchEvent {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Path == path {
				return ev
			}
		case <-deadline:
			t.Fatalf("no event for %s", path)
			return ports.WatchEvent{}
		}
	}
}

func TestWatcher_ReportsWrites(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "main.rs")
	require.NoError(t, os.WriteFile(file, []byte("fn main() {}"), 0o600))

	_, events := startWatcher(t, root)

	require.NoError(t, os.WriteFile(file, []byte("fn main() { println!() }"), 0o600))

	ev := waitFor(t, events, file)
	assert.Equal(t, ports.OpWrite, ev.Operation)
}

func TestWatcher_FollowsNewDirectories(t *testing.T) {
	root := t.TempDir()
	_, events := startWatcher(t, root)

	dir := filepath.Join(root, "src")
	require.NoError(t, os.Mkdir(dir, 0o750))
	waitFor(t, events, dir)

	file := filepath.Join(dir, "lib.rs")
	require.NoError(t, os.WriteFile(file, []byte("pub fn f() {}"), 0o600))
	waitFor(t, events, file)
}

func TestWatcher_SkipsIgnoredDirectories(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "target")
	require.NoError(t, os.Mkdir(target, 0o750))

	_, events := startWatcher(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(target, "artifact"), []byte("x"), 0o600))
	marker := filepath.Join(root, "marker")
	require.NoError(t, os.WriteFile(marker, []byte("x"), 0o600))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			require.False(t, strings.HasPrefix(ev.Path, target), "ignored path reported: %s", ev.Path)
			if ev.Path == marker {
				return
			}
		case <-deadline:
			t.Fatal("no event for marker")
		}
	}
}

func TestWatcher_StopEndsEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)

	w, err := watcher.NewWatcher(log, 10*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background(), t.TempDir()))
	require.NoError(t, w.Stop())

	for range w.Events() {
	}
}

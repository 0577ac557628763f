package reload

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_InvokesOnChangeAfterWrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "servers.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"providers":[]}`), 0o644))

	var calls atomic.Int32
	w := NewWatcher(path, func() error {
		calls.Add(1)
		return nil
	})
	w.SetDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	go func() {
		close(started)
		_ = w.Watch(ctx)
	}()
	<-started
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte(`{"providers":[{"name":"a"}]}`), 0o644))

	require.Eventually(t, func() bool {
		return calls.Load() > 0
	}, time.Second, 10*time.Millisecond, "onChange should fire after the watched file is written")
}

func TestWatcher_DebouncesRapidWrites(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "servers.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"providers":[]}`), 0o644))

	var calls atomic.Int32
	w := NewWatcher(path, func() error {
		calls.Add(1)
		return nil
	})
	w.SetDebounce(100 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	go func() {
		close(started)
		_ = w.Watch(ctx)
	}()
	<-started
	time.Sleep(50 * time.Millisecond)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte(`{"providers":[]}`), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load(), "a burst of writes within the debounce window should collapse into one reload")
}

func TestWatcher_IgnoresUnrelatedFilesInSameDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "servers.json")
	other := filepath.Join(dir, "unrelated.txt")
	require.NoError(t, os.WriteFile(path, []byte(`{"providers":[]}`), 0o644))

	var calls atomic.Int32
	w := NewWatcher(path, func() error {
		calls.Add(1)
		return nil
	})
	w.SetDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	go func() {
		close(started)
		_ = w.Watch(ctx)
	}()
	<-started
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(other, []byte("noise"), 0o644))
	time.Sleep(200 * time.Millisecond)

	assert.Equal(t, int32(0), calls.Load(), "writes to a different file in the same directory must not trigger a reload")
}

func TestWatcher_StopsWhenContextCancelled(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "servers.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"providers":[]}`), 0o644))

	w := NewWatcher(path, func() error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after context cancellation")
	}
}

func TestWatcher_SurvivesAtomicRenameOverFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "servers.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"providers":[]}`), 0o644))

	var calls atomic.Int32
	w := NewWatcher(path, func() error {
		calls.Add(1)
		return nil
	})
	w.SetDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	go func() {
		close(started)
		_ = w.Watch(ctx)
	}()
	<-started
	time.Sleep(50 * time.Millisecond)

	tmp := filepath.Join(dir, "servers.json.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte(`{"providers":[{"name":"a"}]}`), 0o644))
	require.NoError(t, os.Rename(tmp, path))

	require.Eventually(t, func() bool {
		return calls.Load() > 0
	}, time.Second, 10*time.Millisecond, "rename-over-target must be observed since the parent directory is watched")
}

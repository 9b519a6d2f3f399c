package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcherRebuildsOnChange(t *testing.T) {
	dir := t.TempDir()
	var builds atomic.Int64

	w, err := New([]string{dir}, func(ctx context.Context) error {
		builds.Add(1)
		return nil
	}, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Initial build.
	require.Eventually(t, func() bool { return builds.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "page.md"), []byte("# hi"), 0o644))
	require.Eventually(t, func() bool { return builds.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestWatcherSkipsMissingDirectory(t *testing.T) {
	w, err := New([]string{filepath.Join(t.TempDir(), "absent")}, func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, w.Run(ctx), context.DeadlineExceeded)
}

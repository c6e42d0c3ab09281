package cache_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tola/internal/adapters/cache"
	"go.trai.ch/tola/internal/adapters/fs"
	"go.trai.ch/tola/internal/core/domain"
	"go.trai.ch/tola/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func writeAt(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestContentCache_GetOrLoad(t *testing.T) {
	ctrl := gomock.NewController(t)
	recorder := mocks.NewMockMetricsRecorder(ctrl)
	gomock.InOrder(
		recorder.EXPECT().IncCache(false),
		recorder.EXPECT().IncCache(true),
		recorder.EXPECT().IncCache(false),
	)

	path := filepath.Join(t.TempDir(), "post.typ")
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	writeAt(t, path, "= First", base)

	c := cache.NewContentCache(fs.NewHasher(), recorder)

	first, err := c.GetOrLoad(path)
	require.NoError(t, err)
	assert.Equal(t, "= First", string(first.Payload))

	again, err := c.GetOrLoad(path)
	require.NoError(t, err)
	assert.Equal(t, first.Fingerprint, again.Fingerprint)

	writeAt(t, path, "= Second version", base.Add(time.Second))

	changed, err := c.GetOrLoad(path)
	require.NoError(t, err)
	assert.Equal(t, "= Second version", string(changed.Payload))
	assert.NotEqual(t, first.Fingerprint.Hash, changed.Fingerprint.Hash)

	peeked, ok := c.Peek(path)
	require.True(t, ok)
	assert.Equal(t, changed.Fingerprint, peeked)
}

func TestContentCache_TouchKeepsHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "post.typ")
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	writeAt(t, path, "= Same", base)

	c := cache.NewContentCache(fs.NewHasher(), nil)
	first, err := c.GetOrLoad(path)
	require.NoError(t, err)

	require.NoError(t, os.Chtimes(path, base.Add(time.Minute), base.Add(time.Minute)))
	touched, err := c.GetOrLoad(path)
	require.NoError(t, err)

	assert.Equal(t, first.Fingerprint.Hash, touched.Fingerprint.Hash)
	assert.NotEqual(t, first.Fingerprint.ModTime, touched.Fingerprint.ModTime)
}

func TestContentCache_Errors(t *testing.T) {
	dir := t.TempDir()
	c := cache.NewContentCache(fs.NewHasher(), nil)

	_, err := c.GetOrLoad(filepath.Join(dir, "missing.typ"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIO)

	_, err = c.GetOrLoad(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIO)
}

func TestContentCache_Invalidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "post.typ")
	writeAt(t, path, "x", time.Now())

	c := cache.NewContentCache(fs.NewHasher(), nil)
	_, err := c.GetOrLoad(path)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	c.Invalidate(path)
	_, ok := c.Peek(path)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestContentCache_Concurrent(t *testing.T) {
	dir := t.TempDir()
	paths := make([]string, 4)
	for i := range paths {
		paths[i] = filepath.Join(dir, string(rune('a'+i))+".typ")
		writeAt(t, paths[i], "content "+paths[i], time.Now())
	}

	c := cache.NewContentCache(fs.NewHasher(), nil)

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := paths[i%len(paths)]
			entry, err := c.GetOrLoad(p)
			assert.NoError(t, err)
			assert.Equal(t, "content "+p, string(entry.Payload))
		}()
	}
	wg.Wait()
	assert.Equal(t, len(paths), c.Len())
}

package embed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/topology/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedProvider_HitsSkipBackend(t *testing.T) {
	p := &fakeProvider{dim: 3}
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	cp := NewCachedProvider(p, c)

	first, err := cp.Embed(context.Background(), "hello")
	require.NoError(t, err)
	second, err := cp.Embed(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, p.calls)

	_, err = cp.Embed(context.Background(), "other")
	require.NoError(t, err)
	assert.Equal(t, 2, p.calls)
}

func TestCachedProvider_ErrorsNotCached(t *testing.T) {
	p := &fakeProvider{dim: 3}
	cp := NewCachedProvider(p, cache.NewMemoryCache(time.Minute, time.Minute))

	_, err := cp.Embed(context.Background(), "fail")
	require.Error(t, err)
	_, err = cp.Embed(context.Background(), "fail")
	require.Error(t, err)
	assert.Equal(t, 2, p.calls)
}

func TestCachedProvider_CorruptEntryRecomputed(t *testing.T) {
	dir := t.TempDir()
	name := strings.ReplaceAll(cache.Key("fake-model", "hello"), ":", "_") + ".vec"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("garbage"), 0644))

	vec, err := NewCachedProvider(&fakeProvider{dim: 2}, cache.NewDiskCache(dir, time.Hour)).Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, vec, 2)
}

func TestCachedProvider_SurvivesAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	p := &fakeProvider{dim: 4}

	_, err := NewCachedProvider(p, cache.NewLayeredCache(time.Minute, dir, time.Hour)).Embed(context.Background(), "persisted")
	require.NoError(t, err)

	// fresh memory layer, same disk
	vec, err := NewCachedProvider(p, cache.NewLayeredCache(time.Minute, dir, time.Hour)).Embed(context.Background(), "persisted")
	require.NoError(t, err)
	assert.Len(t, vec, 4)
	assert.Equal(t, 1, p.calls)
}

func TestNewCachedProvider_NilCache(t *testing.T) {
	p := &fakeProvider{dim: 1}
	assert.Same(t, Provider(p), NewCachedProvider(p, nil))
}

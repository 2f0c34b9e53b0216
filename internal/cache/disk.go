package cache

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// entryMagic starts every vector file
var entryMagic = []byte("TVC1")

// headerSize is the magic plus the expiry in unix nanoseconds
const headerSize = 4 + 8

// DiskCache keeps one binary file per vector under dir. A file holds the
// magic, an expiry (0 for none) and the little-endian float32 payload.
type DiskCache struct {
	dir string
	ttl time.Duration
}

// NewDiskCache creates a DiskCache. A zero ttl keeps vectors forever.
func NewDiskCache(dir string, ttl time.Duration) *DiskCache {
	return &DiskCache{dir: dir, ttl: ttl}
}

// Vector reads the vector stored under key. Expired or unreadable files
// count as misses and are removed.
func (c *DiskCache) Vector(key string) ([]float32, bool) {
	path := c.path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	vec, expired, err := decodeEntry(data)
	if err != nil || expired || len(vec) == 0 {
		_ = os.Remove(path)
		return nil, false
	}
	return vec, true
}

// Put writes vec under key. Files are renamed into place, so concurrent
// writers of one key never leave a torn entry.
func (c *DiskCache) Put(key string, vec []float32) error {
	var expires int64
	if c.ttl > 0 {
		expires = time.Now().Add(c.ttl).UnixNano()
	}

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, ".vec-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(encodeEntry(vec, expires)); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path(key)); err != nil {
		return fmt.Errorf("rename cache file: %w", err)
	}
	return nil
}

// Purge removes the cache directory
func (c *DiskCache) Purge() error {
	return os.RemoveAll(c.dir)
}

func (c *DiskCache) path(key string) string {
	name := strings.ReplaceAll(key, ":", "_")
	return filepath.Join(c.dir, name+".vec")
}

func encodeEntry(vec []float32, expires int64) []byte {
	buf := make([]byte, headerSize, headerSize+4*len(vec))
	copy(buf, entryMagic)
	binary.LittleEndian.PutUint64(buf[4:], uint64(expires))
	return append(buf, EncodeVector(vec)...)
}

func decodeEntry(data []byte) (vec []float32, expired bool, err error) {
	if len(data) < headerSize || !bytes.Equal(data[:4], entryMagic) {
		return nil, false, fmt.Errorf("not a vector entry")
	}
	expires := int64(binary.LittleEndian.Uint64(data[4:headerSize]))
	if expires != 0 && time.Now().UnixNano() > expires {
		return nil, true, nil
	}
	vec, err = DecodeVector(data[headerSize:])
	return vec, false, err
}

// Package cache keeps embedding vectors across runs, keyed by model and text.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
)

// Cache stores embedding vectors by key
type Cache interface {
	Vector(key string) ([]float32, bool)
	Put(key string, vec []float32) error
	Purge() error
}

// keyPrefix versions the key space; bump it when the vector encoding changes
const keyPrefix = "topology:v1:"

// Key derives the cache key for the embedding of text under model
func Key(model, text string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

// EncodeVector packs a vector as little-endian float32 values
func EncodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

// DecodeVector unpacks a vector written by EncodeVector
func DecodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("decode vector: %d bytes is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}

func clone(v []float32) []float32 {
	return append([]float32(nil), v...)
}

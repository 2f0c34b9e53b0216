package model

import "strconv"

// Embedding is a vector tagged with the key of the entity it was computed for.
// Keys travel with vectors and coordinates so every join downstream is keyed.
type Embedding struct {
	Key      string
	Vector   []float32
	Degraded bool   // Vector is the zero-vector fallback, not a real embedding
	Err      string // Why the fallback was used
}

// Coord is a projected 3-D position tagged with its entity key
type Coord struct {
	Key string
	Pos [3]float64
}

// ChunkKey builds the entity key for a chunk
func ChunkKey(id int) string {
	return "chunk:" + strconv.Itoa(id)
}

// ClaimKey builds the entity key for a claim
func ClaimKey(id string) string {
	return "claim:" + id
}

// Keyed indexes coordinates by entity key
func Keyed(coords []Coord) map[string][3]float64 {
	m := make(map[string][3]float64, len(coords))
	for _, c := range coords {
		m[c.Key] = c.Pos
	}
	return m
}

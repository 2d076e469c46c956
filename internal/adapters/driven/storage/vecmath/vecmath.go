// Package vecmath provides the vector helpers shared by the backing stores
// that rank in process: cosine similarity, top-k selection and the
// little-endian BLOB encoding used for persisted vectors.
package vecmath

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/planscout/internal/core/domain"
)

// Comparison errors.
var (
	// ErrZeroMagnitude is returned when a vector has no direction.
	ErrZeroMagnitude = errors.New("vecmath: zero-magnitude vector")

	// ErrDimensionMismatch is returned when vectors differ in length.
	ErrDimensionMismatch = errors.New("vecmath: dimension mismatch")
)

// Cosine computes the cosine similarity between two vectors.
// It returns an error if the vectors have different lengths or if either
// vector has zero magnitude.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return 0, errors.New("vecmath: empty vectors")
	}
	var dot, na2, nb2 float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return 0, ErrZeroMagnitude
	}
	return dot / (math.Sqrt(na2) * math.Sqrt(nb2)), nil
}

// Rank scores docs against query and returns the best k hits in
// non-increasing score order. Ties keep the lower id first.
// Documents whose vectors cannot be compared are skipped.
func Rank(query []float32, docs []domain.IndexedDocument, k int) []domain.StoredHit {
	if k <= 0 {
		return []domain.StoredHit{}
	}

	hits := make([]domain.StoredHit, 0, len(docs))
	for _, d := range docs {
		score, err := Cosine(query, d.Vector)
		if err != nil {
			continue
		}
		hits = append(hits, domain.StoredHit{Document: d, Score: score})
	}

	SortHits(hits)
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// SortHits orders hits by decreasing score, then by id.
func SortHits(hits []domain.StoredHit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Document.ID < hits[j].Document.ID
	})
}

// Encode converts a []float32 to a little-endian byte slice for storage.
func Encode(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Decode converts a byte slice produced by Encode back to []float32.
func Decode(data []byte) ([]float32, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("vecmath: invalid vector blob length %d", len(data))
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats, nil
}

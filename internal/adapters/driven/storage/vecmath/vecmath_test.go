package vecmath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/planscout/internal/core/domain"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name    string
		a, b    []float32
		want    float64
		wantErr bool
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1, false},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0, false},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1, false},
		{"scaled", []float32{1, 1}, []float32{3, 3}, 1, false},
		{"mismatch", []float32{1}, []float32{1, 2}, 0, true},
		{"empty", nil, nil, 0, true},
		{"zero", []float32{0, 0}, []float32{1, 0}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Cosine(tt.a, tt.b)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-6)
		})
	}
}

func doc(id string, v ...float32) domain.IndexedDocument {
	return domain.IndexedDocument{ID: id, Vector: v}
}

func TestRank(t *testing.T) {
	docs := []domain.IndexedDocument{
		doc("a", 0, 1),
		doc("b", 1, 0),
		doc("c", 1, 1),
		doc("bad", 1, 2, 3),
		doc("d", 1, 0),
	}

	hits := Rank([]float32{1, 0}, docs, 3)

	require.Len(t, hits, 3)
	assert.Equal(t, "b", hits[0].Document.ID)
	assert.Equal(t, "d", hits[1].Document.ID)
	assert.Equal(t, "c", hits[2].Document.ID)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}
}

func TestRank_Bounds(t *testing.T) {
	docs := []domain.IndexedDocument{doc("a", 1), doc("b", 2)}

	assert.Empty(t, Rank([]float32{1}, docs, 0))
	assert.Len(t, Rank([]float32{1}, docs, 10), 2)
}

func TestEncodeDecode(t *testing.T) {
	in := []float32{0.5, -1.25, 3}

	out, err := Decode(Encode(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)

	empty, err := Decode(nil)
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = Decode([]byte{1, 2, 3})
	assert.Error(t, err)
}

package semantic

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// MemoryIndex is an exact brute-force cosine index over one corpus version.
// Vectors are L2-normalized on insert so similarity reduces to a dot
// product. Append-only during build; Search never mutates state, so a
// published index is safe for unlimited concurrent readers.
type MemoryIndex struct {
	dim  int
	ids  []string
	vecs [][]float32
	pos  map[string]int
}

// NewMemoryIndex creates an index for vectors of the given dimension.
func NewMemoryIndex(dim int) (*MemoryIndex, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("semantic: invalid dimension %d", dim)
	}
	return &MemoryIndex{dim: dim, pos: make(map[string]int)}, nil
}

// Len returns the number of stored vectors.
func (ix *MemoryIndex) Len() int { return len(ix.ids) }

// Dimension returns the fixed vector dimension.
func (ix *MemoryIndex) Dimension() int { return ix.dim }

// Insert stores a (docID, vector) pair. Build phase only; the dimension
// must match every vector in the index.
func (ix *MemoryIndex) Insert(docID string, vec []float32) error {
	if len(vec) != ix.dim {
		return fmt.Errorf("semantic: insert %s: dimension %d, want %d", docID, len(vec), ix.dim)
	}
	if _, ok := ix.pos[docID]; ok {
		return fmt.Errorf("semantic: insert %s: duplicate doc id", docID)
	}
	ix.pos[docID] = len(ix.ids)
	ix.ids = append(ix.ids, docID)
	ix.vecs = append(ix.vecs, normalize(vec))
	return nil
}

// Search returns the top-k hits by cosine similarity, descending, with
// ties broken by ascending doc ID. Exact top-k; k larger than the index
// returns everything.
func (ix *MemoryIndex) Search(_ context.Context, vec []float32, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("semantic: search: k must be positive, got %d", k)
	}
	if len(ix.ids) == 0 {
		return nil, nil
	}
	if len(vec) != ix.dim {
		return nil, fmt.Errorf("semantic: search: dimension %d, want %d", len(vec), ix.dim)
	}

	q := normalize(vec)
	hits := make([]SearchResult, len(ix.ids))
	for i, v := range ix.vecs {
		hits[i] = SearchResult{DocID: ix.ids[i], Score: dot(q, v)}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].DocID < hits[j].DocID
	})
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// normalize returns an L2-normalized copy. Zero vectors pass through
// unchanged rather than dividing by zero.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		copy(out, v)
		return out
	}
	norm := float32(math.Sqrt(sum))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

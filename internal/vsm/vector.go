package vsm

import (
	"math"
	"sort"
)

// Vector is a point in term space. Coordinates are positions in a
// Vocabulary; only non-zero coordinates are stored, in ascending order. The
// zero Vector is the all-zero vector of any dimension.
type Vector struct {
	indices []int
	values  []float64
	norm    float64
}

// NewVector builds a Vector from coordinate -> value. Zero values are
// dropped.
func NewVector(coords map[int]float64) Vector {
	indices := make([]int, 0, len(coords))
	for i, v := range coords {
		if v != 0 {
			indices = append(indices, i)
		}
	}
	sort.Ints(indices)
	values := make([]float64, len(indices))
	var sum float64
	for k, i := range indices {
		values[k] = coords[i]
		sum += values[k] * values[k]
	}
	return Vector{indices: indices, values: values, norm: math.Sqrt(sum)}
}

// Get returns coordinate i.
func (v Vector) Get(i int) float64 {
	k := sort.SearchInts(v.indices, i)
	if k < len(v.indices) && v.indices[k] == i {
		return v.values[k]
	}
	return 0
}

// NonZero returns the number of stored coordinates.
func (v Vector) NonZero() int {
	return len(v.indices)
}

// Norm returns the Euclidean length of v.
func (v Vector) Norm() float64 {
	return v.norm
}

// Dot returns the inner product of v and o.
func (v Vector) Dot(o Vector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.indices) && j < len(o.indices) {
		switch {
		case v.indices[i] < o.indices[j]:
			i++
		case v.indices[i] > o.indices[j]:
			j++
		default:
			sum += v.values[i] * o.values[j]
			i++
			j++
		}
	}
	return sum
}

// Dense materialises v over dim coordinates.
func (v Vector) Dense(dim int) []float64 {
	out := make([]float64, dim)
	for k, i := range v.indices {
		if i < dim {
			out[i] = v.values[k]
		}
	}
	return out
}

// Cosine returns dot(a,b) / (|a| |b|). When either vector has zero length
// the similarity is undefined and Cosine returns 0.
func Cosine(a, b Vector) float64 {
	if a.norm == 0 || b.norm == 0 {
		return 0
	}
	return a.Dot(b) / (a.norm * b.norm)
}

// CosineDense is Cosine over dense slices of equal length.
func CosineDense(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

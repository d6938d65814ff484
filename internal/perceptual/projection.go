package perceptual

import (
	"math/rand"
)

// ProjectionMatrix is a deterministic pseudo-random real-valued matrix of
// shape rows x cols, stored row-major. Identical seed and shape yield a
// bit-identical matrix on every machine and across process restarts, which is
// the reproducibility contract the whole fingerprint pipeline depends on.
// Immutable after construction and safe for concurrent use.
type ProjectionMatrix struct {
	rows int
	cols int
	data []float64
}

// NewProjectionMatrix generates a rows x cols matrix of standard-normal values
// from the given seed. math/rand's generator and NormFloat64 are stable across
// Go releases and platforms.
// Parameters:
//   - rows: flattened feature length.
//   - cols: fingerprint bit width.
//   - seed: integer seed, typically from ParseSeed.
// Returns:
//   - *ProjectionMatrix: the generated matrix.
func NewProjectionMatrix(rows, cols int, seed int64) *ProjectionMatrix {
	rng := rand.New(rand.NewSource(seed))
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	return &ProjectionMatrix{rows: rows, cols: cols, data: data}
}

// Rows returns the expected input vector length.
func (m *ProjectionMatrix) Rows() int { return m.rows }

// Cols returns the projected vector length.
func (m *ProjectionMatrix) Cols() int { return m.cols }

// Project multiplies a feature vector by the matrix, writing the cols-length
// result into dst (allocated when nil). len(vec) must equal Rows().
func (m *ProjectionMatrix) Project(vec []float64, dst []float64) []float64 {
	if dst == nil {
		dst = make([]float64, m.cols)
	} else {
		for i := range dst {
			dst[i] = 0
		}
	}
	for r, v := range vec {
		if v == 0 {
			continue
		}
		row := m.data[r*m.cols : (r+1)*m.cols]
		for c, w := range row {
			dst[c] += v * w
		}
	}
	return dst
}

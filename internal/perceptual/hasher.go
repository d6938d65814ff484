package perceptual

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/sigilproject/sigil/internal/domain"
	"github.com/sigilproject/sigil/internal/feature"
)

// normEpsilon guards the L2 normalization: vectors with a norm below it are
// treated as the zero vector instead of dividing by a vanishing norm.
const normEpsilon = 1e-8

// ErrNoFeatures is returned when hashing is attempted with zero feature sets.
var ErrNoFeatures = errors.New("no feature sets to hash")

// Hasher reduces a per-frame feature stream to a fixed-width binary
// fingerprint by deterministic random projection, incremental averaging and
// median-threshold binarization. The projection matrix is generated lazily on
// first use and cached; a Hasher is safe for concurrent use afterwards, since
// hashing itself holds no mutable shared state.
type Hasher struct {
	bits int
	seed int64

	once   sync.Once
	matrix *ProjectionMatrix
	rows   int
}

// NewHasher creates a Hasher.
// Parameters:
//   - bits: target fingerprint width; 0 selects domain.FingerprintBits.
//   - seed: integer seed for the projection matrix, typically from ParseSeed.
// Returns:
//   - *Hasher: configured hasher.
func NewHasher(bits int, seed int64) *Hasher {
	if bits <= 0 {
		bits = domain.FingerprintBits
	}
	return &Hasher{bits: bits, seed: seed}
}

// Seed returns the integer seed the hasher projects with.
func (h *Hasher) Seed() int64 { return h.seed }

// Bits returns the fingerprint bit width.
func (h *Hasher) Bits() int { return h.bits }

// Compute produces a fingerprint from per-frame feature sets in index order.
//
// Per frame: flatten and concatenate the four feature arrays, replace
// non-finite values with zero, L2-normalize, and project to a bits-length
// vector. A running arithmetic mean of the projected vectors is maintained
// incrementally, bounding memory to O(bits) regardless of frame count. After
// all frames, each output bit is 1 where the mean vector exceeds its median.
// A single-frame input is valid and degenerates the mean to that one vector.
// Parameters:
//   - features: ordered per-frame feature sets from the extractor.
// Returns:
//   - domain.Fingerprint: the resulting fingerprint.
//   - error: ErrNoFeatures, or a length mismatch against the projection matrix.
func (h *Hasher) Compute(features []feature.FeatureSet) (domain.Fingerprint, error) {
	if len(features) == 0 {
		return nil, ErrNoFeatures
	}

	rows := features[0].Len()
	matrix, err := h.matrixFor(rows)
	if err != nil {
		return nil, err
	}

	mean := make([]float64, h.bits)
	projected := make([]float64, h.bits)
	for i := range features {
		vec := features[i].Flatten()
		if len(vec) != rows {
			return nil, fmt.Errorf("feature length changed mid-stream: frame %d has %d values, expected %d", i, len(vec), rows)
		}
		sanitize(vec)
		l2Normalize(vec)
		matrix.Project(vec, projected)
		// Incremental mean update keeps memory independent of frame count.
		inv := 1 / float64(i+1)
		for c := range mean {
			mean[c] += (projected[c] - mean[c]) * inv
		}
	}

	return binarize(mean), nil
}

// matrixFor returns the cached projection matrix, generating it on first use.
// The feature length is fixed by the extractor configuration, so a mismatch on
// a later call means the caller mixed configurations.
func (h *Hasher) matrixFor(rows int) (*ProjectionMatrix, error) {
	h.once.Do(func() {
		h.rows = rows
		h.matrix = NewProjectionMatrix(rows, h.bits, h.seed)
	})
	if rows != h.rows {
		return nil, fmt.Errorf("feature length %d does not match projection matrix rows %d", rows, h.rows)
	}
	return h.matrix, nil
}

// sanitize replaces NaN and infinite values with zero in place.
func sanitize(vec []float64) {
	for i, v := range vec {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			vec[i] = 0
		}
	}
}

// l2Normalize scales vec to unit length in place. Near-zero vectors are left
// as the zero vector rather than amplified by a tiny norm.
func l2Normalize(vec []float64) {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	norm := math.Sqrt(sum)
	if norm < normEpsilon {
		for i := range vec {
			vec[i] = 0
		}
		return
	}
	for i := range vec {
		vec[i] /= norm
	}
}

// binarize thresholds the mean vector at its median. Median thresholding keeps
// the 1-bit fraction near one half regardless of the absolute feature scale,
// which keeps Hamming distances comparable across videos and seeds.
func binarize(mean []float64) domain.Fingerprint {
	median := medianOf(mean)
	fp := make(domain.Fingerprint, len(mean))
	for i, v := range mean {
		if v > median {
			fp[i] = 1
		}
	}
	return fp
}

// medianOf computes the median of a vector without mutating it.
func medianOf(vec []float64) float64 {
	sorted := make([]float64, len(vec))
	copy(sorted, vec)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

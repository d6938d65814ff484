package perceptual

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/sigilproject/sigil/internal/domain"
	"github.com/sigilproject/sigil/internal/feature"
)

// syntheticFeatures builds a deterministic pseudo-random feature stream of the
// extractor's real dimensions, without paying for image filtering.
func syntheticFeatures(frames int, rngSeed int64) []feature.FeatureSet {
	cfg := feature.DefaultConfig()
	rng := rand.New(rand.NewSource(rngSeed))
	sets := make([]feature.FeatureSet, 0, frames)
	for i := 0; i < frames; i++ {
		fs := feature.FeatureSet{
			Edges:     make([]float64, cfg.Width*cfg.Height),
			Textures:  make([]float64, len(cfg.GaborOrientations)*cfg.TextureSize*cfg.TextureSize),
			Saliency:  make([]float64, cfg.Width*cfg.Height),
			ColorHist: make([]float64, 3*cfg.HistBins),
		}
		for j := range fs.Edges {
			if rng.Float64() < 0.3 {
				fs.Edges[j] = 1
			}
		}
		for j := range fs.Textures {
			fs.Textures[j] = rng.NormFloat64()
		}
		for j := range fs.Saliency {
			fs.Saliency[j] = rng.NormFloat64() * 50
		}
		for j := range fs.ColorHist {
			fs.ColorHist[j] = rng.Float64() * 100
		}
		sets = append(sets, fs)
	}
	return sets
}

// TestComputeDeterministic verifies same seed plus same features gives
// bit-identical fingerprints across hasher instances
func TestComputeDeterministic(t *testing.T) {
	features := syntheticFeatures(10, 1)

	a, err := NewHasher(0, 42).Compute(features)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	b, err := NewHasher(0, 42).Compute(features)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if a.Hex() != b.Hex() {
		t.Errorf("same inputs produced different fingerprints:\n%s\n%s", a.Hex(), b.Hex())
	}
}

// TestComputeSeedStringParity verifies seed "42" and integer 42 agree
func TestComputeSeedStringParity(t *testing.T) {
	features := syntheticFeatures(5, 2)

	a, err := NewHasher(0, ParseSeed("42")).Compute(features)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	b, err := NewHasher(0, 42).Compute(features)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if a.Hex() != b.Hex() {
		t.Error("seed \"42\" and seed 42 produced different fingerprints")
	}
}

// TestComputeDistinctSeeds verifies different seeds land in different hash spaces
func TestComputeDistinctSeeds(t *testing.T) {
	features := syntheticFeatures(8, 3)

	a, err := NewHasher(0, 42).Compute(features)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	b, err := NewHasher(0, 1337).Compute(features)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	d, err := a.Hamming(b)
	if err != nil {
		t.Fatalf("Hamming failed: %v", err)
	}
	// Unrelated projections behave like random bit strings, about 128 apart.
	if d < 64 {
		t.Errorf("distinct seeds yielded distance %d, expected near-random separation", d)
	}
}

// TestComputeBitBalance verifies median thresholding splits the bits near half
func TestComputeBitBalance(t *testing.T) {
	fp, err := NewHasher(0, 42).Compute(syntheticFeatures(20, 4))
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	ones := fp.OnesCount()
	if delta := math.Abs(float64(ones) - float64(domain.FingerprintBits)/2); delta > 1 {
		t.Errorf("ones count %d too far from %d", ones, domain.FingerprintBits/2)
	}
}

// TestComputeSingleFrame verifies one frame is a valid degenerate sequence
func TestComputeSingleFrame(t *testing.T) {
	fp, err := NewHasher(0, 42).Compute(syntheticFeatures(1, 5))
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if len(fp) != domain.FingerprintBits {
		t.Errorf("fingerprint width: got %d, want %d", len(fp), domain.FingerprintBits)
	}
}

// TestComputeNoFeatures verifies the empty-input sentinel
func TestComputeNoFeatures(t *testing.T) {
	if _, err := NewHasher(0, 42).Compute(nil); !errors.Is(err, ErrNoFeatures) {
		t.Errorf("got %v, want ErrNoFeatures", err)
	}
}

// TestComputeNonFiniteValues verifies NaN and Inf inputs are neutralized
func TestComputeNonFiniteValues(t *testing.T) {
	features := syntheticFeatures(3, 6)
	features[1].Textures[0] = math.NaN()
	features[1].Saliency[5] = math.Inf(1)
	features[2].ColorHist[2] = math.Inf(-1)

	fp, err := NewHasher(0, 42).Compute(features)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if len(fp) != domain.FingerprintBits {
		t.Errorf("fingerprint width: got %d, want %d", len(fp), domain.FingerprintBits)
	}
}

// TestComputeLengthMismatch verifies mixing feature configurations is rejected
func TestComputeLengthMismatch(t *testing.T) {
	h := NewHasher(0, 42)
	if _, err := h.Compute(syntheticFeatures(2, 7)); err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	short := []feature.FeatureSet{{
		Edges:     make([]float64, 16),
		Textures:  make([]float64, 16),
		Saliency:  make([]float64, 16),
		ColorHist: make([]float64, 16),
	}}
	if _, err := h.Compute(short); err == nil {
		t.Error("expected an error for a mismatched feature length")
	}
}

// TestProjectionMatrixDeterministic verifies matrix generation is seed-stable
func TestProjectionMatrixDeterministic(t *testing.T) {
	a := NewProjectionMatrix(100, 16, 42)
	b := NewProjectionMatrix(100, 16, 42)

	vec := make([]float64, 100)
	for i := range vec {
		vec[i] = float64(i%13) - 6
	}
	outA := a.Project(vec, make([]float64, 16))
	outB := b.Project(vec, make([]float64, 16))
	for i := range outA {
		if outA[i] != outB[i] {
			t.Fatalf("projections differ at column %d: %v vs %v", i, outA[i], outB[i])
		}
	}
}

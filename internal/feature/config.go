package feature

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Config holds the fixed constants of the feature pipeline. Every value here
// participates in the fingerprint determinism contract: changing any of them
// changes the flattened feature length or its content, which silently breaks
// comparability with previously stored fingerprints. Version() captures the
// configuration so it can be recorded as provenance next to the seed.
type Config struct {
	// Working resolution every frame is normalized to before extraction.
	Width  int
	Height int

	// Sobel gradient magnitude above which a pixel counts as an edge.
	EdgeThreshold float64

	// Gabor filter bank parameters. Orientations are in degrees.
	GaborOrientations []float64
	GaborKernelSize   int
	GaborSigma        float64
	GaborLambda       float64
	GaborGamma        float64

	// Each oriented texture response is downsampled to TextureSize x TextureSize.
	TextureSize int

	// Joint color histogram bins per channel.
	HistBins int
}

// DefaultConfig returns the reference feature pipeline configuration.
func DefaultConfig() *Config {
	return &Config{
		Width:             64,
		Height:            64,
		EdgeThreshold:     128,
		GaborOrientations: []float64{0, 45, 90, 135},
		GaborKernelSize:   21,
		GaborSigma:        5,
		GaborLambda:       10,
		GaborGamma:        0.5,
		TextureSize:       32,
		HistBins:          32,
	}
}

// VectorLen returns the flattened, concatenated feature length per frame. The
// projection matrix row count must equal this value.
func (c *Config) VectorLen() int {
	return c.Width*c.Height + // edges
		len(c.GaborOrientations)*c.TextureSize*c.TextureSize + // textures
		c.Width*c.Height + // saliency
		3*c.HistBins // color histogram
}

// Version derives a short, stable identifier of the configuration constants.
// Stored alongside fingerprints so a record carries the provenance of the
// pipeline that produced it.
func (c *Config) Version() string {
	s := fmt.Sprintf("w=%d;h=%d;edge=%g;gabor=%v/%d/%g/%g/%g;tex=%d;bins=%d",
		c.Width, c.Height, c.EdgeThreshold,
		c.GaborOrientations, c.GaborKernelSize, c.GaborSigma, c.GaborLambda, c.GaborGamma,
		c.TextureSize, c.HistBins)
	sum := sha256.Sum256([]byte(s))
	return "fx-" + hex.EncodeToString(sum[:4])
}

// FeatureSet bundles the four per-frame feature arrays. All arrays are present
// and non-empty for every processed frame; their concatenated length is
// Config.VectorLen() for the configuration that produced them.
type FeatureSet struct {
	Edges     []float64
	Textures  []float64
	Saliency  []float64
	ColorHist []float64
}

// Flatten concatenates the four arrays into one vector in the fixed order
// edges, textures, saliency, color histogram.
func (f *FeatureSet) Flatten() []float64 {
	out := make([]float64, 0, f.Len())
	out = append(out, f.Edges...)
	out = append(out, f.Textures...)
	out = append(out, f.Saliency...)
	out = append(out, f.ColorHist...)
	return out
}

// Len returns the total flattened length.
func (f *FeatureSet) Len() int {
	return len(f.Edges) + len(f.Textures) + len(f.Saliency) + len(f.ColorHist)
}

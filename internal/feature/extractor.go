package feature

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
)

// ErrNoFrames is returned when extraction is attempted on an empty frame
// sequence. The decoder yielding zero frames is an input-validation failure,
// never a silent empty result.
var ErrNoFrames = errors.New("no frames to extract features from")

// Extractor turns decoded frames into per-frame feature sets. It is stateless
// beyond its configuration and the precomputed Gabor kernels, so a single
// instance is safe for concurrent use.
type Extractor struct {
	cfg          *Config
	gaborKernels [][][]float64
}

// NewExtractor creates an Extractor.
// Parameters:
//   - cfg: feature pipeline configuration; nil uses DefaultConfig.
// Returns:
//   - *Extractor: extractor with the filter bank precomputed.
func NewExtractor(cfg *Config) *Extractor {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	kernels := make([][][]float64, 0, len(cfg.GaborOrientations))
	for _, deg := range cfg.GaborOrientations {
		kernels = append(kernels, gaborKernel(
			cfg.GaborKernelSize, cfg.GaborSigma, deg*math.Pi/180, cfg.GaborLambda, cfg.GaborGamma))
	}
	return &Extractor{cfg: cfg, gaborKernels: kernels}
}

// Config returns the extractor's configuration.
func (e *Extractor) Config() *Config {
	return e.cfg
}

// Extract computes feature sets for an ordered frame sequence. The result is
// indexed by frame position; every entry has all four arrays populated and a
// constant concatenated length of Config.VectorLen().
// Parameters:
//   - ctx: context for cancellation between frames.
//   - frames: ordered decoded frames; channel order must be consistent across
//     calls but is otherwise irrelevant.
// Returns:
//   - []FeatureSet: per-frame features in input order.
//   - error: ErrNoFrames for an empty sequence, or the context error.
func (e *Extractor) Extract(ctx context.Context, frames []image.Image) ([]FeatureSet, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}

	out := make([]FeatureSet, 0, len(frames))
	for idx, frame := range frames {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("extraction canceled at frame %d: %w", idx, err)
		}
		out = append(out, e.extractFrame(frame))
	}
	return out, nil
}

// extractFrame computes the four feature arrays for a single frame.
func (e *Extractor) extractFrame(frame image.Image) FeatureSet {
	normalized := normalizeFrame(frame, e.cfg.Width, e.cfg.Height)
	gray := grayPlane(normalized)

	textures := make([]float64, 0, len(e.gaborKernels)*e.cfg.TextureSize*e.cfg.TextureSize)
	for _, kernel := range e.gaborKernels {
		response := convolve(gray, kernel)
		textures = append(textures, downsample(response, e.cfg.TextureSize, e.cfg.TextureSize)...)
	}

	return FeatureSet{
		Edges:     sobelEdges(gray, e.cfg.EdgeThreshold),
		Textures:  textures,
		Saliency:  flatten(convolve(gray, laplacianKernel)),
		ColorHist: colorHistogram(normalized, e.cfg.HistBins),
	}
}

package service

import (
	"context"
	"image"
	"time"

	"github.com/sigilproject/sigil/internal/decoder"
	"github.com/sigilproject/sigil/internal/domain"
	"github.com/sigilproject/sigil/internal/feature"
	"github.com/sigilproject/sigil/internal/logger"
	"github.com/sigilproject/sigil/internal/perceptual"
)

// HashService runs the full fingerprint pipeline: decoded frames in, 256-bit
// fingerprint out. The pipeline is pure; one service instance is safe to share
// across goroutines hashing independent videos.
type HashService struct {
	extractor *feature.Extractor
	hasher    *perceptual.Hasher
	logger    *logger.Logger
}

// HashConfig holds configuration for the hash service.
type HashConfig struct {
	Seed string // raw seed string; empty selects the fixed public default
	Bits int    // fingerprint width; 0 selects 256
}

// HashResult bundles a computed fingerprint with its provenance: everything a
// future run needs to reproduce the exact same bits.
type HashResult struct {
	Fingerprint    domain.Fingerprint `json:"-"`
	HashHex        string             `json:"hash_hex"`
	FrameCount     int                `json:"frame_count"`
	Seed           int64              `json:"seed"`
	FeatureVersion string             `json:"feature_version"`
}

// NewHashService creates a hash service.
// Parameters:
//   - cfg: seed and bit width; nil uses defaults.
//   - log: logger; nil uses the default logger.
// Returns:
//   - *HashService: configured service.
func NewHashService(cfg *HashConfig, log *logger.Logger) *HashService {
	if cfg == nil {
		cfg = &HashConfig{}
	}
	if log == nil {
		log = logger.GetDefault()
	}
	return &HashService{
		extractor: feature.NewExtractor(nil),
		hasher:    perceptual.NewHasher(cfg.Bits, perceptual.ParseSeed(cfg.Seed)),
		logger:    log,
	}
}

// log returns a logger from context if available, otherwise the service logger.
func (s *HashService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// FeatureVersion returns the provenance identifier of the feature pipeline
// configuration in use.
func (s *HashService) FeatureVersion() string {
	return s.extractor.Config().Version()
}

// ComputeFromFrames fingerprints an ordered frame sequence.
// Parameters:
//   - ctx: context for cancellation.
//   - frames: ordered decoded frames; must be non-empty.
// Returns:
//   - *HashResult: fingerprint plus provenance.
//   - error: feature.ErrNoFrames for an empty sequence, or a pipeline failure.
func (s *HashService) ComputeFromFrames(ctx context.Context, frames []image.Image) (*HashResult, error) {
	start := time.Now()

	features, err := s.extractor.Extract(ctx, frames)
	if err != nil {
		return nil, err
	}

	fp, err := s.hasher.Compute(features)
	if err != nil {
		return nil, err
	}

	result := &HashResult{
		Fingerprint:    fp,
		HashHex:        fp.Hex(),
		FrameCount:     len(frames),
		Seed:           s.hasher.Seed(),
		FeatureVersion: s.FeatureVersion(),
	}

	logger.With(logger.Fields{
		logger.FieldFrames:     result.FrameCount,
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
		logger.FieldHashHex:    result.HashHex,
	}).Info(ctx, "Fingerprint computed")

	return result, nil
}

// ComputeFromSource reads frames from a decoder source and fingerprints them.
// Parameters:
//   - ctx: context for cancellation.
//   - src: frame source for one video.
//   - maxFrames: frame cap passed to the source; <= 0 reads all frames.
// Returns:
//   - *HashResult: fingerprint plus provenance.
//   - error: decode failure, feature.ErrNoFrames, or a pipeline failure.
func (s *HashService) ComputeFromSource(ctx context.Context, src decoder.FrameSource, maxFrames int) (*HashResult, error) {
	s.log(ctx).WithFields(logger.Fields{
		"source":     src.SourceID(),
		"max_frames": maxFrames,
	}).Debug("Reading frames")

	frames, err := src.ReadFrames(ctx, maxFrames)
	if err != nil {
		return nil, err
	}
	return s.ComputeFromFrames(ctx, frames)
}

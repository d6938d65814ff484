// Package decoder defines the seam to the external video decoder. The core
// never decodes video itself; it consumes an ordered, finite sequence of
// images from whatever produced them.
package decoder

import (
	"context"
	"image"
)

// FrameSource supplies decoded frames for one video in presentation order.
// Channel order (RGB vs BGR) is irrelevant to the pipeline as long as a given
// source is consistent about it.
type FrameSource interface {
	// SourceID returns a stable identifier of the underlying video, typically
	// its path.
	SourceID() string

	// ReadFrames decodes up to maxFrames frames in order; maxFrames <= 0 means
	// all frames. An empty result is not an error here; the feature extractor
	// rejects empty sequences as an input-validation failure.
	ReadFrames(ctx context.Context, maxFrames int) ([]image.Image, error)
}

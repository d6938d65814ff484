// Package imagedir adapts a directory of pre-extracted frame images to the
// decoder.FrameSource interface. Pairing a video file with
// "ffmpeg -i video.mp4 frames/%06d.png" keeps actual video decoding outside
// this codebase.
package imagedir

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "golang.org/x/image/webp"
)

var frameExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// Adapter reads frames from a directory of image files in lexical filename
// order. Zero-padded frame numbering keeps lexical and presentation order
// identical.
type Adapter struct {
	dir string
}

// NewAdapter creates an adapter for the given frame directory.
func NewAdapter(dir string) *Adapter {
	return &Adapter{dir: dir}
}

// SourceID returns the frame directory path.
func (a *Adapter) SourceID() string {
	return a.dir
}

// ReadFrames decodes the directory's image files in lexical order.
// Parameters:
//   - ctx: context for cancellation between frames.
//   - maxFrames: stop after this many frames; <= 0 reads all.
// Returns:
//   - []image.Image: ordered decoded frames; empty for a directory with no images.
//   - error: non-nil if the directory cannot be read or a frame fails to decode.
func (a *Adapter) ReadFrames(ctx context.Context, maxFrames int) ([]image.Image, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if frameExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	if maxFrames > 0 && len(names) > maxFrames {
		names = names[:maxFrames]
	}

	frames := make([]image.Image, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frame, err := a.decodeFrame(filepath.Join(a.dir, name))
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

func (a *Adapter) decodeFrame(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame %s: %w", path, err)
	}
	return img, nil
}

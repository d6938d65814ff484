package imagedir

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// writeFrame writes a 4x4 PNG whose top-left red channel encodes its index,
// so decode order is observable.
func writeFrame(t *testing.T, dir, name string, index int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(0, 0, color.RGBA{R: uint8(index), A: 255})
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("create frame: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode frame: %v", err)
	}
}

func frameIndex(t *testing.T, img image.Image) int {
	t.Helper()
	r, _, _, _ := img.At(0, 0).RGBA()
	return int(r >> 8)
}

// TestReadFramesLexicalOrder verifies frames come back in filename order
// regardless of creation order
func TestReadFramesLexicalOrder(t *testing.T) {
	dir := t.TempDir()
	for _, i := range []int{2, 0, 1} {
		writeFrame(t, dir, fmt.Sprintf("%06d.png", i), i)
	}

	frames, err := NewAdapter(dir).ReadFrames(context.Background(), 0)
	if err != nil {
		t.Fatalf("ReadFrames failed: %v", err)
	}
	if len(frames) != 3 {
		t.Fatalf("frame count: got %d, want 3", len(frames))
	}
	for i, frame := range frames {
		if got := frameIndex(t, frame); got != i {
			t.Errorf("position %d holds frame %d", i, got)
		}
	}
}

// TestReadFramesMaxFrames verifies the frame cap takes the lexical prefix
func TestReadFramesMaxFrames(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 5; i++ {
		writeFrame(t, dir, fmt.Sprintf("%06d.png", i), i)
	}

	frames, err := NewAdapter(dir).ReadFrames(context.Background(), 2)
	if err != nil {
		t.Fatalf("ReadFrames failed: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("frame count: got %d, want 2", len(frames))
	}
	if got := frameIndex(t, frames[1]); got != 1 {
		t.Errorf("cap did not keep the lexical prefix: second frame is %d", got)
	}
}

// TestReadFramesSkipsNonImages verifies non-frame files and subdirectories are ignored
func TestReadFramesSkipsNonImages(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, dir, "000000.png", 0)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0755); err != nil {
		t.Fatal(err)
	}

	frames, err := NewAdapter(dir).ReadFrames(context.Background(), 0)
	if err != nil {
		t.Fatalf("ReadFrames failed: %v", err)
	}
	if len(frames) != 1 {
		t.Errorf("frame count: got %d, want 1", len(frames))
	}
}

// TestReadFramesEmptyDirectory verifies an image-free directory yields zero frames
func TestReadFramesEmptyDirectory(t *testing.T) {
	frames, err := NewAdapter(t.TempDir()).ReadFrames(context.Background(), 0)
	if err != nil {
		t.Fatalf("ReadFrames failed: %v", err)
	}
	if len(frames) != 0 {
		t.Errorf("frame count: got %d, want 0", len(frames))
	}
}

// TestReadFramesMissingDirectory verifies a missing directory is an error
func TestReadFramesMissingDirectory(t *testing.T) {
	if _, err := NewAdapter("/nonexistent/frames").ReadFrames(context.Background(), 0); err == nil {
		t.Error("expected an error for a missing directory")
	}
}

// TestReadFramesCancellation verifies context cancellation stops decoding
func TestReadFramesCancellation(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, dir, "000000.png", 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewAdapter(dir).ReadFrames(ctx, 0); err == nil {
		t.Error("expected a cancellation error")
	}
}

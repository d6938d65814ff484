package feature

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// normalizeFrame scales a frame to the working resolution. ApproxBiLinear is a
// pure-Go scaler with deterministic output across platforms, which the
// fingerprint reproducibility contract depends on.
func normalizeFrame(frame image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), frame, frame.Bounds(), draw.Src, nil)
	return dst
}

// grayPlane converts a normalized frame to a row-major luma plane in [0, 255].
func grayPlane(img *image.RGBA) [][]float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	plane := make([][]float64, h)
	for y := 0; y < h; y++ {
		row := make([]float64, w)
		for x := 0; x < w; x++ {
			i := img.PixOffset(x+b.Min.X, y+b.Min.Y)
			r := float64(img.Pix[i])
			g := float64(img.Pix[i+1])
			bl := float64(img.Pix[i+2])
			// ITU-R BT.601 luma weights.
			row[x] = 0.299*r + 0.587*g + 0.114*bl
		}
		plane[y] = row
	}
	return plane
}

// sobelEdges computes a binary edge map: 1 where the Sobel gradient magnitude
// exceeds threshold, 0 elsewhere.
func sobelEdges(gray [][]float64, threshold float64) []float64 {
	h := len(gray)
	w := len(gray[0])
	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := sample(gray, x+1, y-1) + 2*sample(gray, x+1, y) + sample(gray, x+1, y+1) -
				sample(gray, x-1, y-1) - 2*sample(gray, x-1, y) - sample(gray, x-1, y+1)
			gy := sample(gray, x-1, y+1) + 2*sample(gray, x, y+1) + sample(gray, x+1, y+1) -
				sample(gray, x-1, y-1) - 2*sample(gray, x, y-1) - sample(gray, x+1, y-1)
			if math.Sqrt(gx*gx+gy*gy) > threshold {
				out[y*w+x] = 1
			}
		}
	}
	return out
}

// gaborKernel builds a real-valued Gabor kernel of the given size. theta is in
// radians; psi (phase offset) is fixed at 0.
func gaborKernel(size int, sigma, theta, lambda, gamma float64) [][]float64 {
	half := size / 2
	k := make([][]float64, size)
	sinT, cosT := math.Sin(theta), math.Cos(theta)
	for y := 0; y < size; y++ {
		row := make([]float64, size)
		for x := 0; x < size; x++ {
			xf := float64(x - half)
			yf := float64(y - half)
			xr := xf*cosT + yf*sinT
			yr := -xf*sinT + yf*cosT
			env := math.Exp(-(xr*xr + gamma*gamma*yr*yr) / (2 * sigma * sigma))
			row[x] = env * math.Cos(2*math.Pi*xr/lambda)
		}
		k[y] = row
	}
	return k
}

// laplacianKernel is the standard 4-connected second-derivative operator used
// for the saliency approximation.
var laplacianKernel = [][]float64{
	{0, 1, 0},
	{1, -4, 1},
	{0, 1, 0},
}

// convolve applies a kernel to a plane with clamp-to-edge border handling.
func convolve(plane [][]float64, kernel [][]float64) [][]float64 {
	h := len(plane)
	w := len(plane[0])
	kh := len(kernel)
	kw := len(kernel[0])
	ky0 := kh / 2
	kx0 := kw / 2
	out := make([][]float64, h)
	for y := 0; y < h; y++ {
		row := make([]float64, w)
		for x := 0; x < w; x++ {
			var acc float64
			for ky := 0; ky < kh; ky++ {
				for kx := 0; kx < kw; kx++ {
					acc += kernel[ky][kx] * sample(plane, x+kx-kx0, y+ky-ky0)
				}
			}
			row[x] = acc
		}
		out[y] = row
	}
	return out
}

// downsample reduces a plane to target dimensions by block averaging and
// returns it flattened row-major.
func downsample(plane [][]float64, targetW, targetH int) []float64 {
	h := len(plane)
	w := len(plane[0])
	out := make([]float64, targetW*targetH)
	for ty := 0; ty < targetH; ty++ {
		y0 := ty * h / targetH
		y1 := (ty + 1) * h / targetH
		if y1 <= y0 {
			y1 = y0 + 1
		}
		for tx := 0; tx < targetW; tx++ {
			x0 := tx * w / targetW
			x1 := (tx + 1) * w / targetW
			if x1 <= x0 {
				x1 = x0 + 1
			}
			var sum float64
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					sum += plane[y][x]
				}
			}
			out[ty*targetW+tx] = sum / float64((y1-y0)*(x1-x0))
		}
	}
	return out
}

// flatten returns a plane as a row-major vector.
func flatten(plane [][]float64) []float64 {
	h := len(plane)
	w := len(plane[0])
	out := make([]float64, 0, w*h)
	for y := 0; y < h; y++ {
		out = append(out, plane[y]...)
	}
	return out
}

// colorHistogram computes per-channel R, G, B histograms with the given bin
// count and concatenates them.
func colorHistogram(img *image.RGBA, bins int) []float64 {
	hist := make([]float64, 3*bins)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := img.PixOffset(x, y)
			hist[int(img.Pix[i])*bins/256]++
			hist[bins+int(img.Pix[i+1])*bins/256]++
			hist[2*bins+int(img.Pix[i+2])*bins/256]++
		}
	}
	return hist
}

// sample reads a plane value with coordinates clamped to the valid range.
func sample(plane [][]float64, x, y int) float64 {
	if y < 0 {
		y = 0
	} else if y >= len(plane) {
		y = len(plane) - 1
	}
	row := plane[y]
	if x < 0 {
		x = 0
	} else if x >= len(row) {
		x = len(row) - 1
	}
	return row[x]
}

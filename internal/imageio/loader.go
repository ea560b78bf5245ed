// Package imageio loads PNG/JPEG images into normalized grayscale
// buffers, the input contract of the spectrogram builder.
package imageio

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	"github.com/himanishpuri/img2wav/pkg/logger"
)

// Image is a row-major grayscale buffer. Pixels holds Width*Height
// values in [0,1], first row at the top.
type Image struct {
	Width  int
	Height int
	Pixels []float64
}

// Load decodes the image at path and converts it to grayscale.
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imageio: open %s: %w", path, err)
	}
	defer f.Close()

	src, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("imageio: decode %s: %w", path, err)
	}

	img := FromImage(src)
	logger.Debugf("imageio: loaded %s (%s, %dx%d)", path, format, img.Width, img.Height)
	return img, nil
}

// FromImage converts any decoded image to grayscale using BT.709
// luminance. Alpha is ignored.
func FromImage(src image.Image) *Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	img := &Image{
		Width:  w,
		Height: h,
		Pixels: make([]float64, w*h),
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := src.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			lum := 0.2126*float64(r) + 0.7152*float64(g) + 0.0722*float64(b)
			img.Pixels[y*w+x] = lum / 65535.0
		}
	}

	return img
}

// Pixel returns the value at (x, y), or 0 outside the image.
func (im *Image) Pixel(x, y int) float64 {
	if x < 0 || x >= im.Width || y < 0 || y >= im.Height {
		return 0
	}
	return im.Pixels[y*im.Width+x]
}

// BilinearSample interpolates the value at a fractional position,
// clamping coordinates to the image.
func (im *Image) BilinearSample(x, y float64) float64 {
	x = clamp(x, 0, float64(im.Width-1))
	y = clamp(y, 0, float64(im.Height-1))

	x0, y0 := int(math.Floor(x)), int(math.Floor(y))
	x1, y1 := min(x0+1, im.Width-1), min(y0+1, im.Height-1)
	fx, fy := x-float64(x0), y-float64(y0)

	v0 := im.Pixel(x0, y0)*(1-fx) + im.Pixel(x1, y0)*fx
	v1 := im.Pixel(x0, y1)*(1-fx) + im.Pixel(x1, y1)*fx
	return v0*(1-fy) + v1*fy
}

// Resample returns a bilinearly resampled copy with the new dimensions.
func (im *Image) Resample(newWidth, newHeight int) *Image {
	out := &Image{
		Width:  newWidth,
		Height: newHeight,
		Pixels: make([]float64, newWidth*newHeight),
	}

	xScale := float64(im.Width) / float64(newWidth)
	yScale := float64(im.Height) / float64(newHeight)

	for y := 0; y < newHeight; y++ {
		for x := 0; x < newWidth; x++ {
			out.Pixels[y*newWidth+x] = im.BilinearSample(float64(x)*xScale, float64(y)*yScale)
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

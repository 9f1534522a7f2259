package ocr

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

const (
	ContrastFactor    = 2.0
	SharpnessFactor   = 2.0
	BinarizeThreshold = 180 // luminance below this becomes black
)

// smoothKernel is the 3x3 smoothing filter the sharpness step blends against.
var smoothKernel = [9]float64{1, 1, 1, 1, 5, 1, 1, 1, 1}

const smoothScale = 13.0

// PreprocessFile decodes an image from disk and runs Preprocess on it.
func PreprocessFile(path string) (*image.Gray, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return Preprocess(img), nil
}

// Preprocess prepares a ticket photo for OCR: grayscale, contrast x2 around the
// mean luminance, sharpness x2, then a hard threshold. Every step yields a new
// image; the result holds only 0 and 255.
func Preprocess(img image.Image) *image.Gray {
	gray := imaging.Grayscale(img)
	contrasted := enhanceContrast(gray, ContrastFactor)
	sharpened := enhanceSharpness(contrasted, SharpnessFactor)
	return binarize(sharpened, BinarizeThreshold)
}

// enhanceContrast scales each pixel's distance from the rounded mean luminance.
func enhanceContrast(img *image.NRGBA, factor float64) *image.NRGBA {
	mean := math.Floor(meanLuminance(img) + 0.5)
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		v := clamp8(mean + factor*(float64(c.R)-mean))
		return color.NRGBA{R: v, G: v, B: v, A: c.A}
	})
}

// enhanceSharpness computes smooth + factor*(img - smooth) in a single convolution.
func enhanceSharpness(img *image.NRGBA, factor float64) *image.NRGBA {
	var k [9]float64
	for i, w := range smoothKernel {
		k[i] = (1 - factor) * w / smoothScale
	}
	k[4] += factor
	return imaging.Convolve3x3(img, k, nil)
}

func binarize(img *image.NRGBA, threshold uint8) *image.Gray {
	bw := imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		if c.R < threshold {
			return color.NRGBA{A: 255}
		}
		return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	})

	b := bw.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := bw.Pix[y*bw.Stride : y*bw.Stride+b.Dx()*4]
		dst := out.Pix[y*out.Stride : y*out.Stride+b.Dx()]
		for x := range dst {
			dst[x] = src[x*4]
		}
	}
	return out
}

func meanLuminance(img *image.NRGBA) float64 {
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return 0
	}
	var sum uint64
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			sum += uint64(row[x])
		}
	}
	return float64(sum) / float64(n)
}

func clamp8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}

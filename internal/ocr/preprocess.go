package ocr

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/convolution"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/transform"
)

const (
	maxSide        = 2200
	minSide        = 900
	upscaleFactor  = 1.7
	darkMeanCutoff = 110.0
	sharpenAmount  = 0.6
	sharpenSigma   = 1.2
	darkGamma      = 1.3
	thresholdBlock = 31
	thresholdC     = 10.0
)

// Preprocess prepares a photo or screenshot for OCR and returns a binary
// grayscale image. Dark screenshots (mean brightness below 110) get a gamma
// boost before thresholding and are inverted after it.
func Preprocess(img image.Image) (out *image.Gray, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("preprocess panicked: %v", r)
		}
	}()

	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("empty image")
	}

	work := clone.AsRGBA(img)
	if longest := max(b.Dx(), b.Dy()); longest > maxSide {
		scale := float64(maxSide) / float64(longest)
		work = transform.Resize(work, scaled(b.Dx(), scale), scaled(b.Dy(), scale), transform.Box)
	}

	work = effect.Median(work, 1)
	gray := toGray(effect.Grayscale(work))
	dark := meanIntensity(gray) < darkMeanCutoff

	sharp := unsharp(gray)
	if dark {
		sharp = toGray(adjust.Gamma(sharp, darkGamma))
	}

	bin := adaptiveThreshold(sharp, thresholdBlock, thresholdC)
	if dark {
		bin = toGray(effect.Invert(bin))
	}
	bin = despeckle(bin)

	if bb := bin.Bounds(); min(bb.Dx(), bb.Dy()) < minSide {
		bin = toGray(transform.Resize(bin, scaled(bb.Dx(), upscaleFactor), scaled(bb.Dy(), upscaleFactor), transform.CatmullRom))
	}
	return bin, nil
}

// Grayscale is the fallback when Preprocess fails.
func Grayscale(img image.Image) *image.Gray {
	return toGray(img)
}

func scaled(n int, f float64) int {
	return max(1, int(math.Round(float64(n)*f)))
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Set(x, y, color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)))
		}
	}
	return out
}

func meanIntensity(g *image.Gray) float64 {
	if len(g.Pix) == 0 {
		return 0
	}
	var sum float64
	for _, p := range g.Pix {
		sum += float64(p)
	}
	return sum / float64(len(g.Pix))
}

// gaussianKernel is a normalized 1-D kernel; the second pass uses its transpose.
func gaussianKernel(size int, sigma float64) *convolution.Kernel {
	if sigma <= 0 {
		sigma = 0.3*(float64(size-1)*0.5-1) + 0.8
	}
	k := convolution.NewKernel(size, 1)
	half := float64(size-1) / 2
	var sum float64
	for i := range k.Matrix {
		x := float64(i) - half
		k.Matrix[i] = math.Exp(-(x * x) / (2 * sigma * sigma))
		sum += k.Matrix[i]
	}
	for i := range k.Matrix {
		k.Matrix[i] /= sum
	}
	return k
}

func gaussianBlur(g *image.Gray, size int, sigma float64) *image.Gray {
	k := gaussianKernel(size, sigma)
	opts := &convolution.Options{KeepAlpha: true}
	h := convolution.Convolve(g, k, opts)
	return toGray(convolution.Convolve(h, k.Transposed(), opts))
}

// unsharp computes 1.6*g - 0.6*blur(g).
func unsharp(g *image.Gray) *image.Gray {
	size := int(math.Round(sharpenSigma*6+1)) | 1
	blurred := gaussianBlur(g, size, sharpenSigma)
	out := image.NewGray(g.Bounds())
	for i, p := range g.Pix {
		v := (1+sharpenAmount)*float64(p) - sharpenAmount*float64(blurred.Pix[i])
		out.Pix[i] = clampByte(v)
	}
	return out
}

// adaptiveThreshold marks a pixel white when it is brighter than the
// Gaussian-weighted mean of its block minus c.
func adaptiveThreshold(g *image.Gray, block int, c float64) *image.Gray {
	mean := gaussianBlur(g, block, 0)
	out := image.NewGray(g.Bounds())
	for i, p := range g.Pix {
		if float64(p) > float64(mean.Pix[i])-c {
			out.Pix[i] = 255
		}
	}
	return out
}

// despeckle flips pixels whose eight neighbours all have the other value.
func despeckle(g *image.Gray) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(b)
	copy(out.Pix, g.Pix)
	w, h := b.Dx(), b.Dy()
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			p := g.Pix[y*g.Stride+x]
			isolated := true
			for dy := -1; dy <= 1 && isolated; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					if g.Pix[(y+dy)*g.Stride+x+dx] == p {
						isolated = false
						break
					}
				}
			}
			if isolated {
				out.Pix[y*out.Stride+x] = 255 - p
			}
		}
	}
	return out
}

func clampByte(v float64) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return uint8(math.Round(v))
	}
}

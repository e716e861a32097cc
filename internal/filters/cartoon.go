package filters

import (
	"fmt"
	"image"
	"math"
)

// CartoonOptions tunes the cartoon filter
type CartoonOptions struct {
	// Diameter of the bilateral neighbourhood in pixels
	Diameter   int
	SigmaColor float64
	SigmaSpace float64
	// BlockSize is the odd window used for the adaptive edge threshold
	BlockSize int
	// C is subtracted from the local mean before thresholding
	C float64
}

// DefaultCartoonOptions returns the stock cartoon settings
func DefaultCartoonOptions() CartoonOptions {
	return CartoonOptions{
		Diameter:   15,
		SigmaColor: 80,
		SigmaSpace: 80,
		BlockSize:  7,
		C:          7,
	}
}

// Cartoon flattens colors with an edge-preserving bilateral filter and masks
// the result with an adaptive-threshold line drawing.
type Cartoon struct {
	opts        CartoonOptions
	colorWeight []float64
	taps        []bilateralTap
}

type bilateralTap struct {
	dx, dy int
	weight float64
}

// NewCartoon creates a cartoon filter
func NewCartoon(opts CartoonOptions) (*Cartoon, error) {
	if opts.Diameter <= 0 || opts.Diameter > MaxKernelSize {
		return nil, invalid("cartoon diameter must be between 1 and %d, got %d", MaxKernelSize, opts.Diameter)
	}
	if !positiveFinite(opts.SigmaColor) || !positiveFinite(opts.SigmaSpace) {
		return nil, invalid("cartoon sigmas must be positive, got %v and %v", opts.SigmaColor, opts.SigmaSpace)
	}
	if opts.BlockSize < 3 || opts.BlockSize%2 == 0 || opts.BlockSize > MaxKernelSize {
		return nil, invalid("cartoon block size must be an odd number between 3 and %d, got %d", MaxKernelSize, opts.BlockSize)
	}
	if math.IsNaN(opts.C) || math.IsInf(opts.C, 0) {
		return nil, invalid("cartoon threshold offset must be finite, got %v", opts.C)
	}

	c := &Cartoon{opts: opts}

	colorCoeff := -0.5 / (opts.SigmaColor * opts.SigmaColor)
	c.colorWeight = make([]float64, 3*255+1)
	for i := range c.colorWeight {
		c.colorWeight[i] = math.Exp(float64(i*i) * colorCoeff)
	}

	radius := opts.Diameter / 2
	spaceCoeff := -0.5 / (opts.SigmaSpace * opts.SigmaSpace)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			r2 := float64(dx*dx + dy*dy)
			if math.Sqrt(r2) > float64(radius) {
				continue
			}
			c.taps = append(c.taps, bilateralTap{dx: dx, dy: dy, weight: math.Exp(r2 * spaceCoeff)})
		}
	}

	return c, nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// Apply renders the cartoon frame
func (c *Cartoon) Apply(frame *image.RGBA) (*image.RGBA, error) {
	if err := checkFrame(frame); err != nil {
		return nil, err
	}

	smooth := c.bilateral(frame)
	mask := c.adaptiveMask(grayPlane(smooth), frame.Rect.Dx(), frame.Rect.Dy())

	w, h := frame.Rect.Dx(), frame.Rect.Dy()
	forEachRow(h, func(y int) {
		row := smooth.Pix[y*smooth.Stride : y*smooth.Stride+w*4]
		for x := 0; x < w; x++ {
			m := mask[y*w+x]
			i := x * 4
			row[i] &= m
			row[i+1] &= m
			row[i+2] &= m
			row[i+3] = 255
		}
	})

	return smooth, nil
}

func (c *Cartoon) bilateral(frame *image.RGBA) *image.RGBA {
	w, h := frame.Rect.Dx(), frame.Rect.Dy()
	out := newFrame(frame)
	pix := func(x, y int) []uint8 {
		x = clampInt(x, 0, w-1)
		y = clampInt(y, 0, h-1)
		o := y*frame.Stride + x*4
		return frame.Pix[o : o+3 : o+3]
	}

	forEachRow(h, func(y int) {
		for x := 0; x < w; x++ {
			center := pix(x, y)
			var sumR, sumG, sumB, sumW float64
			for _, tap := range c.taps {
				p := pix(x+tap.dx, y+tap.dy)
				diff := absDiff(p[0], center[0]) + absDiff(p[1], center[1]) + absDiff(p[2], center[2])
				wgt := tap.weight * c.colorWeight[diff]
				sumR += wgt * float64(p[0])
				sumG += wgt * float64(p[1])
				sumB += wgt * float64(p[2])
				sumW += wgt
			}
			o := y*out.Stride + x*4
			out.Pix[o] = clampByte(sumR / sumW)
			out.Pix[o+1] = clampByte(sumG / sumW)
			out.Pix[o+2] = clampByte(sumB / sumW)
			out.Pix[o+3] = 255
		}
	})

	return out
}

// adaptiveMask thresholds each pixel against the mean of its block:
// 255 where gray > mean - C, otherwise 0
func (c *Cartoon) adaptiveMask(gray []uint8, w, h int) []uint8 {
	half := c.opts.BlockSize / 2
	area := float64(c.opts.BlockSize * c.opts.BlockSize)

	rows := make([]int32, w*h)
	forEachRow(h, func(y int) {
		for x := 0; x < w; x++ {
			var sum int32
			for k := -half; k <= half; k++ {
				sum += int32(gray[y*w+clampInt(x+k, 0, w-1)])
			}
			rows[y*w+x] = sum
		}
	})

	mask := make([]uint8, w*h)
	forEachRow(h, func(y int) {
		for x := 0; x < w; x++ {
			var sum int32
			for k := -half; k <= half; k++ {
				sum += rows[clampInt(y+k, 0, h-1)*w+x]
			}
			mean := math.Round(float64(sum) / area)
			if float64(gray[y*w+x]) > mean-c.opts.C {
				mask[y*w+x] = 255
			}
		}
	})

	return mask
}

// Name returns the filter name
func (c *Cartoon) Name() string {
	return fmt.Sprintf("cartoon(d=%d)", c.opts.Diameter)
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

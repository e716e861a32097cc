package filters

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/convolution"
)

// DefaultBlurKernel is the kernel size used when none is given
const DefaultBlurKernel = 15

// GaussianBlur applies a separable 2D Gaussian blur with an odd square
// kernel. Sigma is derived from the kernel size.
type GaussianBlur struct {
	kernel     int
	sigma      float64
	horizontal convolution.Matrix
	vertical   convolution.Matrix
}

// NewGaussianBlur creates a blur filter. kernel must be a positive odd number
// no larger than MaxKernelSize.
func NewGaussianBlur(kernel int) (*GaussianBlur, error) {
	if kernel <= 0 || kernel%2 == 0 {
		return nil, invalid("blur kernel size must be a positive odd number, got %d", kernel)
	}
	if kernel > MaxKernelSize {
		return nil, invalid("blur kernel size must be at most %d, got %d", MaxKernelSize, kernel)
	}

	sigma := KernelSigma(kernel)
	half := kernel / 2
	row := convolution.NewKernel(kernel, 1)
	for i := range row.Matrix {
		d := float64(i - half)
		row.Matrix[i] = math.Exp(-d * d / (2 * sigma * sigma))
	}

	return &GaussianBlur{
		kernel:     kernel,
		sigma:      sigma,
		horizontal: row.Normalized(),
		vertical:   row.Transposed().Normalized(),
	}, nil
}

// KernelSigma is the standard deviation used for a kernel of size k when
// none is given: 0.3*((k-1)/2 - 1) + 0.8
func KernelSigma(k int) float64 {
	return 0.3*(float64(k-1)/2-1) + 0.8
}

// Apply blurs the frame. A kernel of 1 leaves the image unchanged.
func (g *GaussianBlur) Apply(frame *image.RGBA) (*image.RGBA, error) {
	if err := checkFrame(frame); err != nil {
		return nil, err
	}

	opts := &convolution.Options{Bias: 0, Wrap: false, KeepAlpha: false}
	out := convolution.Convolve(convolution.Convolve(frame, g.horizontal, opts), g.vertical, opts)
	if !out.Rect.Eq(frame.Rect) {
		out.Rect = frame.Rect
	}
	setOpaque(out)
	return out, nil
}

// Kernel returns the configured kernel size
func (g *GaussianBlur) Kernel() int {
	return g.kernel
}

// Sigma returns the Gaussian standard deviation
func (g *GaussianBlur) Sigma() float64 {
	return g.sigma
}

// Name returns the filter name
func (g *GaussianBlur) Name() string {
	return fmt.Sprintf("blur(%d)", g.kernel)
}

func setOpaque(frame *image.RGBA) {
	for i := 3; i < len(frame.Pix); i += 4 {
		frame.Pix[i] = 255
	}
}

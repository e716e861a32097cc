// Package filters implements the per-frame video effects.
//
// Every filter works on *image.RGBA frames (R, G, B, A byte order) as they
// come out of the decode stream. Filters never modify their input and always
// return a frame with the same bounds and an opaque alpha channel.
package filters

import (
	"errors"
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/therealutkarshpriyadarshi/vfx/pkg/models"
)

// MaxKernelSize bounds every kernel, diameter and block size a filter accepts
const MaxKernelSize = 255

// ErrNilFrame is returned when a filter is applied to a nil frame
var ErrNilFrame = errors.New("input frame cannot be nil")

// Filter is a pure per-frame transform
type Filter interface {
	// Apply processes a frame and returns a new frame of the same size
	Apply(frame *image.RGBA) (*image.RGBA, error)
	// Name returns the filter name for logs and errors
	Name() string
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", models.ErrInvalidParameter, fmt.Sprintf(format, args...))
}

func checkFrame(frame *image.RGBA) error {
	if frame == nil {
		return ErrNilFrame
	}
	if frame.Rect.Empty() {
		return fmt.Errorf("frame has empty bounds %v", frame.Rect)
	}
	return nil
}

// newFrame allocates an opaque-ready frame with the same bounds as src
func newFrame(src *image.RGBA) *image.RGBA {
	return image.NewRGBA(src.Rect)
}

// forEachRow runs fn over every row of the frame, split across CPUs
func forEachRow(height int, fn func(y int)) {
	parallel.Line(height, func(start, end int) {
		for y := start; y < end; y++ {
			fn(y)
		}
	})
}

func clampByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// luma converts an RGB triple to BT.601 luma with integer rounding
func luma(r, g, b uint8) uint8 {
	return uint8((299*uint32(r) + 587*uint32(g) + 114*uint32(b) + 500) / 1000)
}

// grayPlane returns the luma of every pixel, row-major, width*height bytes
func grayPlane(frame *image.RGBA) []uint8 {
	w, h := frame.Rect.Dx(), frame.Rect.Dy()
	plane := make([]uint8, w*h)
	forEachRow(h, func(y int) {
		row := frame.Pix[y*frame.Stride : y*frame.Stride+w*4]
		for x := 0; x < w; x++ {
			i := x * 4
			plane[y*w+x] = luma(row[i], row[i+1], row[i+2])
		}
	})
	return plane
}

// broadcastPlane writes a single-channel plane to all three color channels
func broadcastPlane(plane []uint8, rect image.Rectangle) *image.RGBA {
	out := image.NewRGBA(rect)
	w, h := rect.Dx(), rect.Dy()
	forEachRow(h, func(y int) {
		row := out.Pix[y*out.Stride : y*out.Stride+w*4]
		for x := 0; x < w; x++ {
			v := plane[y*w+x]
			i := x * 4
			row[i], row[i+1], row[i+2], row[i+3] = v, v, v, 255
		}
	})
	return out
}

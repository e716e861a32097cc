package filters

import (
	"fmt"
	"image"
	"math"
)

// Default hysteresis thresholds for edge detection
const (
	DefaultCannyLow  = 100
	DefaultCannyHigh = 200
)

var (
	tan22 = math.Tan(math.Pi / 8)
	tan67 = math.Tan(3 * math.Pi / 8)
)

// CannyEdges produces a binary edge map (0 or 255 in every channel)
// using Sobel gradients, non-maximum suppression and hysteresis.
type CannyEdges struct {
	low  float64
	high float64
}

// NewCannyEdges creates an edge filter. Thresholds given in the wrong
// order are swapped.
func NewCannyEdges(low, high float64) (*CannyEdges, error) {
	if low < 0 || high < 0 || math.IsNaN(low) || math.IsNaN(high) || math.IsInf(low, 1) || math.IsInf(high, 1) {
		return nil, invalid("edge thresholds must be finite and non-negative, got %v and %v", low, high)
	}
	if low > high {
		low, high = high, low
	}
	return &CannyEdges{low: low, high: high}, nil
}

// Apply computes the edge map of the frame
func (c *CannyEdges) Apply(frame *image.RGBA) (*image.RGBA, error) {
	if err := checkFrame(frame); err != nil {
		return nil, err
	}

	w, h := frame.Rect.Dx(), frame.Rect.Dy()
	gray := grayPlane(frame)

	gx := make([]int32, w*h)
	gy := make([]int32, w*h)
	mag := make([]int32, w*h)

	forEachRow(h, func(y int) {
		ym, yp := clampInt(y-1, 0, h-1), clampInt(y+1, 0, h-1)
		for x := 0; x < w; x++ {
			xm, xp := clampInt(x-1, 0, w-1), clampInt(x+1, 0, w-1)

			p := func(px, py int) int32 { return int32(gray[py*w+px]) }

			dx := (p(xp, ym) + 2*p(xp, y) + p(xp, yp)) - (p(xm, ym) + 2*p(xm, y) + p(xm, yp))
			dy := (p(xm, yp) + 2*p(x, yp) + p(xp, yp)) - (p(xm, ym) + 2*p(x, ym) + p(xp, ym))

			i := y*w + x
			gx[i], gy[i] = dx, dy
			mag[i] = abs32(dx) + abs32(dy)
		}
	})

	// 0 = suppressed, 1 = weak candidate, 2 = strong edge
	state := make([]uint8, w*h)
	forEachRow(h, func(y int) {
		for x := 0; x < w; x++ {
			i := y*w + x
			m := float64(mag[i])
			if m <= c.low {
				continue
			}

			n1, n2 := c.neighbors(mag, w, h, x, y, gx[i], gy[i])
			if !(mag[i] > n1 && mag[i] >= n2) {
				continue
			}

			if m > c.high {
				state[i] = 2
			} else {
				state[i] = 1
			}
		}
	})

	edges := hysteresis(state, w, h)
	return broadcastPlane(edges, frame.Rect), nil
}

// neighbors returns the magnitudes on either side of (x, y) along the
// gradient direction
func (c *CannyEdges) neighbors(mag []int32, w, h, x, y int, dx, dy int32) (int32, int32) {
	at := func(px, py int) int32 {
		if px < 0 || py < 0 || px >= w || py >= h {
			return 0
		}
		return mag[py*w+px]
	}

	ax, ay := math.Abs(float64(dx)), math.Abs(float64(dy))
	switch {
	case ay <= ax*tan22:
		return at(x-1, y), at(x+1, y)
	case ay >= ax*tan67:
		return at(x, y-1), at(x, y+1)
	case (dx > 0) == (dy > 0):
		return at(x-1, y-1), at(x+1, y+1)
	default:
		return at(x+1, y-1), at(x-1, y+1)
	}
}

// hysteresis keeps strong edges and every weak candidate 8-connected to one
func hysteresis(state []uint8, w, h int) []uint8 {
	out := make([]uint8, w*h)
	stack := make([]int, 0, 64)

	for i, s := range state {
		if s == 2 && out[i] == 0 {
			out[i] = 255
			stack = append(stack, i)
		}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			cx, cy := cur%w, cur/w
			for ny := cy - 1; ny <= cy+1; ny++ {
				for nx := cx - 1; nx <= cx+1; nx++ {
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					j := ny*w + nx
					if out[j] == 0 && state[j] != 0 {
						out[j] = 255
						stack = append(stack, j)
					}
				}
			}
		}
	}

	return out
}

// Name returns the filter name
func (c *CannyEdges) Name() string {
	return fmt.Sprintf("edge_detection(%g,%g)", c.low, c.high)
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

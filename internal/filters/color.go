package filters

import "image"

// Grayscale converts frames to luma and broadcasts it back to R, G and B
type Grayscale struct{}

// NewGrayscale creates a grayscale filter
func NewGrayscale() *Grayscale {
	return &Grayscale{}
}

// Apply converts the frame to gray while keeping the RGBA layout
func (g *Grayscale) Apply(frame *image.RGBA) (*image.RGBA, error) {
	if err := checkFrame(frame); err != nil {
		return nil, err
	}
	return broadcastPlane(grayPlane(frame), frame.Rect), nil
}

// Name returns the filter name
func (g *Grayscale) Name() string {
	return "grayscale"
}

// sepiaMatrix rows produce R, G and B from the source (R, G, B) vector
var sepiaMatrix = [3][3]float64{
	{0.393, 0.769, 0.189},
	{0.349, 0.686, 0.168},
	{0.272, 0.534, 0.131},
}

// Sepia applies the fixed sepia color-mixing matrix
type Sepia struct {
	matrix [3][3]float64
}

// NewSepia creates a sepia filter
func NewSepia() *Sepia {
	return &Sepia{matrix: sepiaMatrix}
}

// Apply mixes each pixel's channel vector through the sepia matrix
func (s *Sepia) Apply(frame *image.RGBA) (*image.RGBA, error) {
	if err := checkFrame(frame); err != nil {
		return nil, err
	}

	out := newFrame(frame)
	w, h := frame.Rect.Dx(), frame.Rect.Dy()
	m := s.matrix

	forEachRow(h, func(y int) {
		src := frame.Pix[y*frame.Stride : y*frame.Stride+w*4]
		dst := out.Pix[y*out.Stride : y*out.Stride+w*4]
		for x := 0; x < w; x++ {
			i := x * 4
			r, g, b := float64(src[i]), float64(src[i+1]), float64(src[i+2])
			dst[i] = clampByte(m[0][0]*r + m[0][1]*g + m[0][2]*b)
			dst[i+1] = clampByte(m[1][0]*r + m[1][1]*g + m[1][2]*b)
			dst[i+2] = clampByte(m[2][0]*r + m[2][1]*g + m[2][2]*b)
			dst[i+3] = 255
		}
	})

	return out, nil
}

// Name returns the filter name
func (s *Sepia) Name() string {
	return "sepia"
}

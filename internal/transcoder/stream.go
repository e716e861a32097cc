package transcoder

import (
	"context"
	"errors"
	"fmt"
	"image"

	vidio "github.com/AlexEidt/Vidio"
)

// DefaultFrameCodec is the ffmpeg encoder used for frame streams (mp4v)
const DefaultFrameCodec = "mpeg4"

// FrameSource is a decoded stream of RGBA frames
type FrameSource interface {
	Width() int
	Height() int
	FPS() float64
	Bitrate() int
	// Frames is the container's frame count, 0 when unknown
	Frames() int
	// Read advances to the next frame and reports whether one was decoded
	Read() bool
	// FrameBuffer holds the current frame, 4 bytes per pixel
	FrameBuffer() []byte
	Close()
}

// FrameSink encodes RGBA frames
type FrameSink interface {
	Write(frame []byte) error
	Close()
}

// SourceOpener opens a decode stream
type SourceOpener func(path string) (FrameSource, error)

// SinkOpener opens an encode stream with the given geometry and rate
type SinkOpener func(path string, width, height int, fps float64, bitrate int, codec string) (FrameSink, error)

// FrameFunc transforms a single frame
type FrameFunc func(frame *image.RGBA) (*image.RGBA, error)

// ProgressFunc receives the number of frames written so far and the
// expected total (0 when unknown)
type ProgressFunc func(frames, total int)

// OpenVidioSource decodes path with Vidio
func OpenVidioSource(path string) (FrameSource, error) {
	video, err := vidio.NewVideo(path)
	if err != nil {
		return nil, err
	}
	return video, nil
}

// OpenVidioSink encodes to path with Vidio
func OpenVidioSink(path string, width, height int, fps float64, bitrate int, codec string) (FrameSink, error) {
	writer, err := vidio.NewVideoWriter(path, width, height, &vidio.Options{
		FPS:     fps,
		Bitrate: bitrate,
		Codec:   codec,
	})
	if err != nil {
		return nil, err
	}
	return writer, nil
}

// FrameProcessor streams a video frame by frame through a transform
// and re-encodes it with the source geometry and frame rate.
type FrameProcessor struct {
	openSource       SourceOpener
	openSink         SinkOpener
	codec            string
	progressInterval int
}

// FrameProcessorOption configures a FrameProcessor
type FrameProcessorOption func(*FrameProcessor)

// WithOpeners replaces the Vidio decode and encode streams
func WithOpeners(source SourceOpener, sink SinkOpener) FrameProcessorOption {
	return func(p *FrameProcessor) {
		p.openSource = source
		p.openSink = sink
	}
}

// NewFrameProcessor creates a frame processor. progressInterval is the number
// of frames between progress callbacks.
func NewFrameProcessor(codec string, progressInterval int, opts ...FrameProcessorOption) *FrameProcessor {
	if codec == "" {
		codec = DefaultFrameCodec
	}
	if progressInterval <= 0 {
		progressInterval = 100
	}

	p := &FrameProcessor{
		openSource:       OpenVidioSource,
		openSink:         OpenVidioSink,
		codec:            codec,
		progressInterval: progressInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process decodes src, applies fn to every frame in order and encodes the
// result to dst. It returns the number of frames written.
func (p *FrameProcessor) Process(ctx context.Context, src, dst string, fn FrameFunc, progress ProgressFunc) (int, error) {
	source, err := p.openSource(src)
	if err != nil {
		return 0, fmt.Errorf("%w: decode %s: %v", ErrCodecOpen, src, err)
	}
	defer source.Close()

	width, height := source.Width(), source.Height()
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("%w: invalid frame size %dx%d", ErrCodecOpen, width, height)
	}

	sink, err := p.openSink(dst, width, height, source.FPS(), source.Bitrate(), p.codec)
	if err != nil {
		return 0, fmt.Errorf("%w: encode %s: %v", ErrCodecOpen, dst, err)
	}
	defer sink.Close()

	bounds := image.Rect(0, 0, width, height)
	frames := 0

	for source.Read() {
		if err := ctx.Err(); err != nil {
			return frames, err
		}

		in := &image.RGBA{Pix: source.FrameBuffer(), Stride: width * 4, Rect: bounds}
		out, err := applyFrame(fn, in)
		if err != nil {
			return frames, fmt.Errorf("%w at frame %d: %v", ErrFrameTransform, frames, err)
		}
		if !out.Rect.Size().Eq(bounds.Size()) {
			return frames, fmt.Errorf("%w at frame %d: transform changed frame size to %v",
				ErrFrameTransform, frames, out.Rect.Size())
		}

		if err := sink.Write(packed(out)); err != nil {
			// The encoder process starts on the first write
			if frames == 0 {
				return 0, fmt.Errorf("%w: encode %s: %v", ErrCodecOpen, dst, err)
			}
			return frames, fmt.Errorf("%w at frame %d: %v", ErrRender, frames, err)
		}

		frames++
		if progress != nil && frames%p.progressInterval == 0 {
			progress(frames, source.Frames())
		}
	}

	if err := ctx.Err(); err != nil {
		return frames, err
	}
	if frames == 0 {
		return 0, fmt.Errorf("%w: no frames decoded from %s", ErrCodecOpen, src)
	}

	return frames, nil
}

// applyFrame runs fn and converts a panic into an error
func applyFrame(fn FrameFunc, in *image.RGBA) (out *image.RGBA, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	out, err = fn(in)
	if err == nil && out == nil {
		err = errors.New("transform returned no frame")
	}
	return out, err
}

// packed returns the frame's pixels without row padding
func packed(frame *image.RGBA) []byte {
	w, h := frame.Rect.Dx(), frame.Rect.Dy()
	if frame.Stride == w*4 && len(frame.Pix) == w*h*4 {
		return frame.Pix
	}
	buf := make([]byte, 0, w*h*4)
	for y := 0; y < h; y++ {
		buf = append(buf, frame.Pix[y*frame.Stride:y*frame.Stride+w*4]...)
	}
	return buf
}

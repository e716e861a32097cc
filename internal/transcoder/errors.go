package transcoder

import "errors"

var (
	// ErrCodecOpen is returned when a decode or encode stream cannot be opened
	ErrCodecOpen = errors.New("failed to open video codec")
	// ErrFrameTransform is returned when a per-frame transform fails or panics
	ErrFrameTransform = errors.New("frame transform failed")
	// ErrClipLoad is returned when a source clip cannot be loaded
	ErrClipLoad = errors.New("failed to load clip")
	// ErrRender is returned when encoding the output fails
	ErrRender = errors.New("failed to render output")
)

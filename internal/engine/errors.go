package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/therealutkarshpriyadarshi/vfx/internal/transcoder"
	"github.com/therealutkarshpriyadarshi/vfx/pkg/models"
)

// Error kinds. Every failure returned by the engine matches exactly one of
// these with errors.Is.
var (
	ErrNotFound          = errors.New("video not found")
	ErrUnsupportedFormat = errors.New("unsupported video format")
	ErrTooLarge          = errors.New("video too large")
	ErrCodecOpen         = transcoder.ErrCodecOpen
	ErrFrameTransform    = transcoder.ErrFrameTransform
	ErrClipLoad          = transcoder.ErrClipLoad
	ErrRender            = transcoder.ErrRender
	ErrNotImplemented    = errors.New("effect not implemented")
	ErrUnknownEffect     = models.ErrUnknownEffect
	ErrInvalidParameter  = models.ErrInvalidParameter
	ErrTimeout           = errors.New("effect job timed out")
)

var kinds = []error{
	ErrNotFound,
	ErrUnsupportedFormat,
	ErrTooLarge,
	ErrCodecOpen,
	ErrFrameTransform,
	ErrClipLoad,
	ErrRender,
	ErrNotImplemented,
	ErrUnknownEffect,
	ErrInvalidParameter,
	ErrTimeout,
}

// TooLargeError reports the actual and allowed size of a rejected source
type TooLargeError struct {
	SizeMB  float64
	LimitMB float64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("%s: %.2f MB exceeds the %.2f MB limit", ErrTooLarge, e.SizeMB, e.LimitMB)
}

// Is makes errors.Is(err, ErrTooLarge) match
func (e *TooLargeError) Is(target error) bool {
	return target == ErrTooLarge
}

// Error is returned for every failed job. Its message names the effect and
// the source file.
type Error struct {
	Kind   error
	Effect models.EffectType
	Source string
	Err    error
}

func (e *Error) Error() string {
	subject := filepath.Base(e.Source)
	if e.Effect != "" {
		subject = fmt.Sprintf("%s on %s", e.Effect, subject)
	}

	switch {
	case e.Err == nil:
		return fmt.Sprintf("%s: %v", subject, e.Kind)
	case errors.Is(e.Err, e.Kind):
		return fmt.Sprintf("%s: %v", subject, e.Err)
	default:
		return fmt.Sprintf("%s: %v: %v", subject, e.Kind, e.Err)
	}
}

// Unwrap exposes both the kind and the underlying cause
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindName returns a short label for metrics and logs
func KindName(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrTooLarge):
		return "too_large"
	case errors.Is(err, ErrCodecOpen):
		return "codec_open"
	case errors.Is(err, ErrFrameTransform):
		return "frame_transform"
	case errors.Is(err, ErrClipLoad):
		return "clip_load"
	case errors.Is(err, ErrRender):
		return "render"
	case errors.Is(err, ErrNotImplemented):
		return "not_implemented"
	case errors.Is(err, ErrUnknownEffect):
		return "unknown_effect"
	case errors.Is(err, ErrInvalidParameter):
		return "invalid_parameter"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	return "unknown"
}

// wrap classifies err and attaches the job context. Deadline expiry becomes
// ErrTimeout; any unclassified failure is treated as a render failure.
func wrap(effect models.EffectType, source string, err error) error {
	if err == nil {
		return nil
	}

	var engineErr *Error
	if errors.As(err, &engineErr) {
		return err
	}

	kind := classify(err)
	if kind == ErrTimeout && !errors.Is(err, ErrTimeout) {
		err = fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	return &Error{Kind: kind, Effect: effect, Source: source, Err: err}
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	if errors.Is(err, context.Canceled) {
		return context.Canceled
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrRender
}

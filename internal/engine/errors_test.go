package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/therealutkarshpriyadarshi/vfx/pkg/models"
)

func TestWrapClassifies(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"deadline", context.DeadlineExceeded, ErrTimeout},
		{"wrapped deadline", fmt.Errorf("ffmpeg: %w", context.DeadlineExceeded), ErrTimeout},
		{"canceled", context.Canceled, context.Canceled},
		{"codec", fmt.Errorf("%w: no such encoder", ErrCodecOpen), ErrCodecOpen},
		{"transform", fmt.Errorf("%w: frame 3", ErrFrameTransform), ErrFrameTransform},
		{"too large", &TooLargeError{SizeMB: 2, LimitMB: 1}, ErrTooLarge},
		{"unclassified", errors.New("disk full"), ErrRender},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := wrap(models.EffectBlur, "/videos/clip.mp4", tt.err)

			var engineErr *Error
			require.True(t, errors.As(err, &engineErr))
			assert.Equal(t, tt.kind, engineErr.Kind)
			assert.ErrorIs(t, err, tt.kind)
			assert.ErrorIs(t, err, tt.err)
			assert.Contains(t, err.Error(), "blur on clip.mp4")
		})
	}

	assert.NoError(t, wrap(models.EffectBlur, "a.mp4", nil))
}

func TestWrapKeepsEngineErrors(t *testing.T) {
	inner := &Error{Kind: ErrNotFound, Effect: models.EffectSepia, Source: "a.mp4"}
	assert.Same(t, inner, wrap(models.EffectBlur, "b.mp4", inner))
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Kind: ErrNotImplemented, Effect: models.EffectGlitch, Source: "/tmp/x/party.mov"}
	assert.Equal(t, "glitch on party.mov: effect not implemented", err.Error())

	err = &Error{Kind: ErrRender, Source: "party.mov", Err: errors.New("exit status 1")}
	assert.Equal(t, "party.mov: failed to render output: exit status 1", err.Error())

	err = &Error{Kind: ErrCodecOpen, Effect: models.EffectBlur, Source: "a.mp4", Err: fmt.Errorf("%w: mpeg4", ErrCodecOpen)}
	assert.Equal(t, "blur on a.mp4: failed to open video codec: mpeg4", err.Error())
}

func TestTooLargeErrorMessage(t *testing.T) {
	err := &TooLargeError{SizeMB: 612.5, LimitMB: 500}
	assert.Equal(t, "video too large: 612.50 MB exceeds the 500.00 MB limit", err.Error())
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestKindName(t *testing.T) {
	assert.Equal(t, "none", KindName(nil))
	assert.Equal(t, "not_found", KindName(wrap("", "a", ErrNotFound)))
	assert.Equal(t, "too_large", KindName(&TooLargeError{}))
	assert.Equal(t, "timeout", KindName(wrap("", "a", context.DeadlineExceeded)))
	assert.Equal(t, "canceled", KindName(context.Canceled))
	assert.Equal(t, "render", KindName(wrap("", "a", errors.New("?"))))
	assert.Equal(t, "unknown", KindName(errors.New("?")))
}

func TestValidator(t *testing.T) {
	dir := t.TempDir()
	small := writeSource(t, dir, "Small.MP4", "tiny")
	flv := writeSource(t, dir, "clip.flv", "tiny")
	noExt := writeSource(t, dir, "clip", "tiny")

	big := filepath.Join(dir, "big.mov")
	f, err := os.Create(big)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(3*1024*1024))
	require.NoError(t, f.Close())

	v := NewValidator([]string{".MP4", "mov"}, 2)

	stat, err := v.Validate(small)
	require.NoError(t, err)
	assert.EqualValues(t, 4, stat.Size())

	_, err = v.Validate(filepath.Join(dir, "missing.mp4"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = v.Validate(dir)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = v.Validate(flv)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = v.Validate(noExt)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = v.Validate(big)
	var tooLarge *TooLargeError
	require.True(t, errors.As(err, &tooLarge))
	assert.Equal(t, 3.0, tooLarge.SizeMB)
	assert.Equal(t, 2.0, tooLarge.LimitMB)

	// Existence is checked before format
	_, err = v.Validate(filepath.Join(dir, "missing.flv"))
	assert.ErrorIs(t, err, ErrNotFound)
}

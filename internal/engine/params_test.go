package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/therealutkarshpriyadarshi/vfx/internal/filters"
	"github.com/therealutkarshpriyadarshi/vfx/pkg/models"
)

func TestBlurFilterParams(t *testing.T) {
	tests := []struct {
		name    string
		params  models.EffectParams
		want    int
		wantErr bool
	}{
		{"default", nil, filters.DefaultBlurKernel, false},
		{"strength", models.EffectParams{"strength": 5}, 5, false},
		{"kernel size alias", models.EffectParams{"kernel_size": "9"}, 9, false},
		{"strength wins", models.EffectParams{"strength": 3, "kernel_size": 9}, 3, false},
		{"even", models.EffectParams{"strength": 4}, 0, true},
		{"zero", models.EffectParams{"strength": 0}, 0, true},
		{"fractional", models.EffectParams{"strength": 2.5}, 0, true},
		{"huge", models.EffectParams{"strength": 1000000001}, 0, true},
		{"not a number", models.EffectParams{"strength": "NaN"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := blurFilter(tt.params)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidParameter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.(*filters.GaussianBlur).Kernel())
		})
	}
}

func TestEdgeAndCartoonParams(t *testing.T) {
	_, err := edgeFilter(models.EffectParams{"threshold1": 50, "threshold2": "150"})
	assert.NoError(t, err)

	_, err = edgeFilter(models.EffectParams{"threshold1": -1})
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = edgeFilter(models.EffectParams{"threshold2": "high"})
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = cartoonFilter(nil)
	assert.NoError(t, err)

	_, err = cartoonFilter(models.EffectParams{"block_size": 8})
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = cartoonFilter(models.EffectParams{"sigma_color": 0})
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestNonFiniteParamsRejected(t *testing.T) {
	for _, value := range []interface{}{"NaN", "Inf", "-Inf", math.NaN(), math.Inf(1)} {
		_, err := cartoonFilter(models.EffectParams{"sigma_color": value})
		assert.ErrorIs(t, err, ErrInvalidParameter, "sigma_color %v", value)

		_, err = edgeFilter(models.EffectParams{"threshold1": value})
		assert.ErrorIs(t, err, ErrInvalidParameter, "threshold1 %v", value)

		_, err = speedFactor(models.EffectParams{"factor": value}, 0.5)
		assert.ErrorIs(t, err, ErrInvalidParameter, "factor %v", value)
	}

	_, err := cartoonFilter(models.EffectParams{"diameter": 1000000001})
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestSpeedFactor(t *testing.T) {
	factor, err := speedFactor(nil, DefaultSlowMotionFactor)
	require.NoError(t, err)
	assert.Equal(t, 0.5, factor)

	factor, err = speedFactor(models.EffectParams{"factor": "1.5"}, DefaultSpeedUpFactor)
	require.NoError(t, err)
	assert.Equal(t, 1.5, factor)

	for _, bad := range []interface{}{0, -2, "fast"} {
		_, err := speedFactor(models.EffectParams{"factor": bad}, 1)
		assert.ErrorIs(t, err, ErrInvalidParameter, "factor %v", bad)
	}
}

func TestTextOverlayDefaults(t *testing.T) {
	overlay, err := textOverlay(nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultOverlayText, overlay.Text)
	assert.Equal(t, DefaultOverlayFontSize, overlay.FontSize)
	assert.Equal(t, DefaultOverlayColor, overlay.Color)
	assert.Equal(t, "center", overlay.X)
	assert.Equal(t, "bottom", overlay.Y)
	assert.Zero(t, overlay.Start)
	assert.Zero(t, overlay.Duration)
}

func TestTextOverlayRejects(t *testing.T) {
	tests := map[string]models.EffectParams{
		"zero duration":   {"duration": 0},
		"bad start":       {"start": "later"},
		"bad font size":   {"font_size": "big"},
		"bool text":       {"text": true},
		"three positions": {"position": "left,top,right"},
	}
	for name, params := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := textOverlay(params)
			assert.ErrorIs(t, err, ErrInvalidParameter)
		})
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		input   interface{}
		want    string
		wantErr bool
	}{
		{"White", "white", false},
		{"#FF8800", "0xff8800", false},
		{"0x00ff00", "0x00ff00", false},
		{"ff000080", "0xff000080", false},
		{"255, 128, 0", "0xff8000", false},
		{[]interface{}{0.0, 0.0, 255.0}, "0x0000ff", false},
		{[]int{1, 2, 3}, "", true},
		{[]interface{}{0.0, 300.0, 0.0}, "", true},
		{[]interface{}{1.0, 2.0}, "", true},
		{"#12", "", true},
		{"light-blue", "", true},
	}

	for _, tt := range tests {
		got, err := parseColor(models.EffectParams{"color": tt.input})
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidParameter, "color %v", tt.input)
			continue
		}
		require.NoError(t, err, "color %v", tt.input)
		assert.Equal(t, tt.want, got, "color %v", tt.input)
	}
}

func TestParsePosition(t *testing.T) {
	tests := []struct {
		input interface{}
		x, y  string
	}{
		{"center", "center", "center"},
		{"TOP", "center", "top"},
		{"bottom", "center", "bottom"},
		{"left", "left", "center"},
		{"right", "right", "center"},
		{"center,bottom", "center", "bottom"},
		{[]interface{}{"right", "top"}, "right", "top"},
		{[]interface{}{10.0, 20.0}, "10", "20"},
	}

	for _, tt := range tests {
		x, y, err := parsePosition(models.EffectParams{"position": tt.input})
		require.NoError(t, err, "position %v", tt.input)
		assert.Equal(t, tt.x, x, "position %v", tt.input)
		assert.Equal(t, tt.y, y, "position %v", tt.input)
	}

	_, _, err := parsePosition(models.EffectParams{"position": "middle"})
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

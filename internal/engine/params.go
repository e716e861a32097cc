package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/therealutkarshpriyadarshi/vfx/internal/filters"
	"github.com/therealutkarshpriyadarshi/vfx/internal/transcoder"
	"github.com/therealutkarshpriyadarshi/vfx/pkg/models"
)

// Parameter defaults
const (
	DefaultSlowMotionFactor = 0.5
	DefaultSpeedUpFactor    = 2.0
	DefaultOverlayText      = "NewFutures VFX"
	DefaultOverlayFontSize  = 50
	DefaultOverlayColor     = "white"
)

var (
	hexColor   = regexp.MustCompile(`^#?(0x)?[0-9a-fA-F]{6}([0-9a-fA-F]{2})?$`)
	namedColor = regexp.MustCompile(`^[a-zA-Z]+$`)
)

func blurFilter(params models.EffectParams) (filters.Filter, error) {
	kernel, err := params.Int(params.First("strength", "kernel_size"), filters.DefaultBlurKernel)
	if err != nil {
		return nil, err
	}
	return filters.NewGaussianBlur(kernel)
}

func edgeFilter(params models.EffectParams) (filters.Filter, error) {
	low, err := params.Float("threshold1", filters.DefaultCannyLow)
	if err != nil {
		return nil, err
	}
	high, err := params.Float("threshold2", filters.DefaultCannyHigh)
	if err != nil {
		return nil, err
	}
	return filters.NewCannyEdges(low, high)
}

func cartoonFilter(params models.EffectParams) (filters.Filter, error) {
	opts := filters.DefaultCartoonOptions()

	var err error
	if opts.Diameter, err = params.Int("diameter", opts.Diameter); err != nil {
		return nil, err
	}
	if opts.SigmaColor, err = params.Float("sigma_color", opts.SigmaColor); err != nil {
		return nil, err
	}
	if opts.SigmaSpace, err = params.Float("sigma_space", opts.SigmaSpace); err != nil {
		return nil, err
	}
	if opts.BlockSize, err = params.Int("block_size", opts.BlockSize); err != nil {
		return nil, err
	}
	if opts.C, err = params.Float("c", opts.C); err != nil {
		return nil, err
	}

	return filters.NewCartoon(opts)
}

func speedFactor(params models.EffectParams, def float64) (float64, error) {
	factor, err := params.Float("factor", def)
	if err != nil {
		return 0, err
	}
	if factor <= 0 {
		return 0, fmt.Errorf("%w: factor must be positive, got %v", ErrInvalidParameter, factor)
	}
	return factor, nil
}

func textOverlay(params models.EffectParams) (transcoder.TextOverlay, error) {
	var (
		overlay transcoder.TextOverlay
		err     error
	)

	if overlay.Text, err = params.String("text", DefaultOverlayText); err != nil {
		return overlay, err
	}
	if overlay.FontSize, err = params.Int("font_size", DefaultOverlayFontSize); err != nil {
		return overlay, err
	}
	if overlay.Font, err = params.String("font", ""); err != nil {
		return overlay, err
	}
	if overlay.Color, err = parseColor(params); err != nil {
		return overlay, err
	}
	if overlay.X, overlay.Y, err = parsePosition(params); err != nil {
		return overlay, err
	}

	start, _, err := params.Seconds("start")
	if err != nil {
		return overlay, err
	}
	duration, present, err := params.Seconds("duration")
	if err != nil {
		return overlay, err
	}
	if present && duration <= 0 {
		return overlay, fmt.Errorf("%w: duration must be positive, got %v", ErrInvalidParameter, duration)
	}
	overlay.Start, overlay.Duration = start, duration

	return overlay, nil
}

// parseColor accepts a color name, #rrggbb or an [r, g, b] list
func parseColor(params models.EffectParams) (string, error) {
	raw, ok := params.Raw("color")
	if !ok {
		return DefaultOverlayColor, nil
	}

	if s, isString := raw.(string); isString {
		s = strings.TrimSpace(s)
		switch {
		case hexColor.MatchString(s):
			return "0x" + strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(s), "#"), "0x"), nil
		case namedColor.MatchString(s):
			return strings.ToLower(s), nil
		}
		if !strings.Contains(s, ",") {
			return "", fmt.Errorf("%w: color %q", ErrInvalidParameter, s)
		}
	}

	parts, _, err := params.Strings("color")
	if err != nil {
		return "", err
	}
	if len(parts) != 3 {
		return "", fmt.Errorf("%w: color needs 3 components, got %d", ErrInvalidParameter, len(parts))
	}

	var rgb [3]int
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || v < 0 || v > 255 {
			return "", fmt.Errorf("%w: color component %q", ErrInvalidParameter, part)
		}
		rgb[i] = v
	}
	return fmt.Sprintf("0x%02x%02x%02x", rgb[0], rgb[1], rgb[2]), nil
}

// parsePosition accepts a single anchor or an (x, y) pair
func parsePosition(params models.EffectParams) (string, string, error) {
	parts, ok, err := params.Strings("position")
	if err != nil {
		return "", "", err
	}
	if !ok {
		return "center", "bottom", nil
	}

	switch len(parts) {
	case 1:
		anchor := strings.ToLower(parts[0])
		switch anchor {
		case "center":
			return "center", "center", nil
		case "top", "bottom":
			return "center", anchor, nil
		case "left", "right":
			return anchor, "center", nil
		}
		return "", "", fmt.Errorf("%w: position %q", ErrInvalidParameter, parts[0])
	case 2:
		return parts[0], parts[1], nil
	}
	return "", "", fmt.Errorf("%w: position needs 1 or 2 values, got %d", ErrInvalidParameter, len(parts))
}

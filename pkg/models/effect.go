package models

import (
	"errors"
	"fmt"
	"strings"
)

// EffectType identifies one entry of the effect catalog
type EffectType string

// EffectType constants
const (
	EffectBlur            EffectType = "blur"
	EffectGrayscale       EffectType = "grayscale"
	EffectSepia           EffectType = "sepia"
	EffectEdgeDetection   EffectType = "edge_detection"
	EffectCartoon         EffectType = "cartoon"
	EffectGlitch          EffectType = "glitch"
	EffectSlowMotion      EffectType = "slow_motion"
	EffectSpeedUp         EffectType = "speed_up"
	EffectReverse         EffectType = "reverse"
	EffectFadeIn          EffectType = "fade_in"
	EffectFadeOut         EffectType = "fade_out"
	EffectChromaKey       EffectType = "chroma_key"
	EffectColorCorrection EffectType = "color_correction"
	EffectStabilization   EffectType = "stabilization"
	EffectTextOverlay     EffectType = "text_overlay"
)

// ErrUnknownEffect is returned when a string does not name a catalog entry
var ErrUnknownEffect = errors.New("unknown effect")

var catalog = []EffectType{
	EffectBlur,
	EffectGrayscale,
	EffectSepia,
	EffectEdgeDetection,
	EffectCartoon,
	EffectGlitch,
	EffectSlowMotion,
	EffectSpeedUp,
	EffectReverse,
	EffectFadeIn,
	EffectFadeOut,
	EffectChromaKey,
	EffectColorCorrection,
	EffectStabilization,
	EffectTextOverlay,
}

// AllEffects returns every catalog entry in declaration order
func AllEffects() []EffectType {
	out := make([]EffectType, len(catalog))
	copy(out, catalog)
	return out
}

// ParseEffectType resolves an identifier such as "edge_detection".
// Matching is case-insensitive and tolerates '-' in place of '_'.
func ParseEffectType(s string) (EffectType, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for _, effect := range catalog {
		if string(effect) == normalized {
			return effect, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEffect, s)
}

// Valid reports whether the effect is part of the catalog
func (e EffectType) Valid() bool {
	for _, effect := range catalog {
		if effect == e {
			return true
		}
	}
	return false
}

func (e EffectType) String() string {
	return string(e)
}

// Strategy describes how an effect is executed
type Strategy string

// Strategy constants
const (
	StrategyFrameStream    Strategy = "frame_stream"
	StrategyClip           Strategy = "clip"
	StrategyNotImplemented Strategy = "not_implemented"
)

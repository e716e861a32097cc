package engine

import (
	"context"
	"fmt"

	"github.com/therealutkarshpriyadarshi/vfx/internal/filters"
	"github.com/therealutkarshpriyadarshi/vfx/pkg/models"
)

// StrategyOf reports how an effect is executed. Every catalog entry has an
// explicit case; an empty result means the entry was never wired.
func StrategyOf(effect models.EffectType) models.Strategy {
	switch effect {
	case models.EffectBlur,
		models.EffectGrayscale,
		models.EffectSepia,
		models.EffectEdgeDetection,
		models.EffectCartoon:
		return models.StrategyFrameStream
	case models.EffectSlowMotion,
		models.EffectSpeedUp,
		models.EffectReverse,
		models.EffectTextOverlay:
		return models.StrategyClip
	case models.EffectGlitch,
		models.EffectFadeIn,
		models.EffectFadeOut,
		models.EffectChromaKey,
		models.EffectColorCorrection,
		models.EffectStabilization:
		return models.StrategyNotImplemented
	}
	return ""
}

// runFunc renders src into dst and returns the number of frames written
// when known
type runFunc func(ctx context.Context, job *models.Job, dst string) (int, error)

// handler is a resolved effect: its strategy and a ready-to-run closure with
// parameters already validated
type handler struct {
	strategy models.Strategy
	run      runFunc
}

// resolve selects the handler for job.Effect and validates its parameters.
// Nothing is opened or written.
func (e *Engine) resolve(job *models.Job) (*handler, error) {
	params := job.Params

	switch job.Effect {
	case models.EffectBlur:
		return e.frameHandler(blurFilter(params))
	case models.EffectGrayscale:
		return e.frameHandler(filters.NewGrayscale(), nil)
	case models.EffectSepia:
		return e.frameHandler(filters.NewSepia(), nil)
	case models.EffectEdgeDetection:
		return e.frameHandler(edgeFilter(params))
	case models.EffectCartoon:
		return e.frameHandler(cartoonFilter(params))

	case models.EffectSlowMotion:
		return e.retimeHandler(speedFactor(params, DefaultSlowMotionFactor))
	case models.EffectSpeedUp:
		return e.retimeHandler(speedFactor(params, DefaultSpeedUpFactor))
	case models.EffectReverse:
		return &handler{strategy: models.StrategyClip, run: func(ctx context.Context, job *models.Job, dst string) (int, error) {
			return 0, e.clips.Reverse(ctx, job.Source, dst)
		}}, nil
	case models.EffectTextOverlay:
		overlay, err := textOverlay(params)
		if err != nil {
			return nil, err
		}
		return &handler{strategy: models.StrategyClip, run: func(ctx context.Context, job *models.Job, dst string) (int, error) {
			return 0, e.clips.OverlayText(ctx, job.Source, dst, overlay)
		}}, nil

	case models.EffectGlitch,
		models.EffectFadeIn,
		models.EffectFadeOut,
		models.EffectChromaKey,
		models.EffectColorCorrection,
		models.EffectStabilization:
		return nil, fmt.Errorf("%w: %s", ErrNotImplemented, job.Effect)
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownEffect, job.Effect)
}

func (e *Engine) frameHandler(filter filters.Filter, err error) (*handler, error) {
	if err != nil {
		return nil, err
	}
	return &handler{strategy: models.StrategyFrameStream, run: func(ctx context.Context, job *models.Job, dst string) (int, error) {
		logger := e.logger.WithJobID(job.ID)
		return e.frames.Process(ctx, job.Source, dst, filter.Apply, func(frames, total int) {
			logger.LogFrameProgress(frames, total)
		})
	}}, nil
}

func (e *Engine) retimeHandler(factor float64, err error) (*handler, error) {
	if err != nil {
		return nil, err
	}
	return &handler{strategy: models.StrategyClip, run: func(ctx context.Context, job *models.Job, dst string) (int, error) {
		return 0, e.clips.Retime(ctx, job.Source, dst, factor)
	}}, nil
}

package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/therealutkarshpriyadarshi/vfx/internal/metrics"
	"github.com/therealutkarshpriyadarshi/vfx/internal/tracing"
	"github.com/therealutkarshpriyadarshi/vfx/pkg/models"
	"golang.org/x/sync/errgroup"
)

// OutputName returns the batch destination file name for src:
// <stem>_<effect><ext>
func OutputName(src string, effect models.EffectType) string {
	base := filepath.Base(src)
	ext := filepath.Ext(base)
	return fmt.Sprintf("%s_%s%s", strings.TrimSuffix(base, ext), effect, ext)
}

// BatchApply applies effect to every source and writes the outputs into dir.
// Item failures are logged and left out of the returned paths; an error is
// only returned when the batch cannot start.
func (e *Engine) BatchApply(ctx context.Context, srcs []string, effect models.EffectType, dir string, params models.EffectParams) ([]string, error) {
	result, err := e.BatchApplyResult(ctx, srcs, effect, dir, params)
	if err != nil {
		return nil, err
	}
	return result.Outputs(), nil
}

// BatchApplyResult is BatchApply with per-item outcomes. Items keep the
// order of srcs.
func (e *Engine) BatchApplyResult(ctx context.Context, srcs []string, effect models.EffectType, dir string, params models.EffectParams) (*models.BatchResult, error) {
	if !effect.Valid() {
		return nil, &Error{Kind: ErrUnknownEffect, Effect: effect, Source: dir}
	}
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("%w: empty destination directory", ErrInvalidParameter)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &Error{Kind: ErrCodecOpen, Effect: effect, Source: dir, Err: err}
	}

	span, ctx := tracing.StartSpan(ctx, "effect.batch")
	defer tracing.FinishSpan(span)
	tracing.SetTag(span, "effect", string(effect))
	tracing.SetTag(span, "items", len(srcs))

	logger := e.logger.WithEffect(string(effect))
	start := time.Now()

	destinations := make([]string, len(srcs))
	seen := make(map[string]string, len(srcs))
	for i, src := range srcs {
		destinations[i] = filepath.Join(dir, OutputName(src, effect))
		if prev, ok := seen[destinations[i]]; ok {
			logger.WithField("destination", destinations[i]).
				Warnf("Sources %s and %s map to the same output; the last to finish wins", prev, src)
		}
		seen[destinations[i]] = src
	}

	items := make([]models.BatchItem, len(srcs))

	g, gctx := errgroup.WithContext(ctx)
	if e.cfg.BatchConcurrency > 0 {
		g.SetLimit(e.cfg.BatchConcurrency)
	}

	for i, src := range srcs {
		i, src := i, src
		g.Go(func() error {
			item := models.BatchItem{Source: src, Destination: destinations[i]}
			if _, err := e.ApplyEffect(gctx, src, effect, destinations[i], params); err != nil {
				item.Destination = ""
				item.Err = err
				item.Error = err.Error()
				logger.LogBatchItemFailure(src, err)
			}
			metrics.RecordBatchItem(string(effect), item.Err == nil)

			items[i] = item
			// Item failures never cancel siblings.
			return nil
		})
	}
	g.Wait()

	result := &models.BatchResult{Effect: effect}
	for _, item := range items {
		if item.Err != nil {
			result.Failed = append(result.Failed, item)
		} else {
			result.Succeeded = append(result.Succeeded, item)
		}
	}

	duration := time.Since(start)
	metrics.RecordBatch(duration.Seconds())
	logger.LogEffectEvent("batch", models.JobStatusCompleted, map[string]interface{}{
		"destination_dir": dir,
		"succeeded":       len(result.Succeeded),
		"failed":          len(result.Failed),
		"duration_ms":     duration.Milliseconds(),
	})

	return result, nil
}

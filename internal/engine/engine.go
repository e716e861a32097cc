// Package engine validates effect jobs, dispatches them to the frame-stream
// or clip strategy and finalises their outputs.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/therealutkarshpriyadarshi/vfx/internal/config"
	"github.com/therealutkarshpriyadarshi/vfx/internal/logging"
	"github.com/therealutkarshpriyadarshi/vfx/internal/metrics"
	"github.com/therealutkarshpriyadarshi/vfx/internal/tracing"
	"github.com/therealutkarshpriyadarshi/vfx/internal/transcoder"
	"github.com/therealutkarshpriyadarshi/vfx/pkg/models"
)

// FrameRunner streams every frame of src through fn into dst
type FrameRunner interface {
	Process(ctx context.Context, src, dst string, fn transcoder.FrameFunc, progress transcoder.ProgressFunc) (int, error)
}

// ClipRunner performs whole-clip edits
type ClipRunner interface {
	Retime(ctx context.Context, src, dst string, factor float64) error
	Reverse(ctx context.Context, src, dst string) error
	OverlayText(ctx context.Context, src, dst string, overlay transcoder.TextOverlay) error
}

// Prober reads container and stream metadata
type Prober = transcoder.Prober

// ProbeCache stores probe results keyed by file identity. A miss is nil, nil.
type ProbeCache interface {
	GetVideoInfo(ctx context.Context, path string, stat os.FileInfo) (*models.VideoInfo, error)
	SetVideoInfo(ctx context.Context, path string, stat os.FileInfo, info *models.VideoInfo, ttl time.Duration) error
}

// Dependencies are the collaborators an Engine delegates to. Cache and
// Logger are optional.
type Dependencies struct {
	Frames FrameRunner
	Clips  ClipRunner
	Prober Prober
	Cache  ProbeCache
	Logger *logging.Logger
}

// Engine applies catalog effects to video files. It holds no per-job state
// and is safe for concurrent use.
type Engine struct {
	cfg       config.EffectsConfig
	validator *Validator
	frames    FrameRunner
	clips     ClipRunner
	prober    Prober
	cache     ProbeCache
	logger    *logging.Logger
}

// New creates an engine from explicit dependencies
func New(cfg config.EffectsConfig, deps Dependencies) *Engine {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &Engine{
		cfg:       cfg,
		validator: NewValidator(cfg.SupportedFormats, cfg.MaxVideoSizeMB),
		frames:    deps.Frames,
		clips:     deps.Clips,
		prober:    deps.Prober,
		cache:     deps.Cache,
		logger:    logger,
	}
}

// NewFromConfig wires the Vidio frame processor and the ffmpeg clip editor
func NewFromConfig(cfg *config.Config, logger *logging.Logger, cache ProbeCache) *Engine {
	ff := transcoder.NewFFmpeg(cfg.Transcoder.FFmpegPath, cfg.Transcoder.FFprobePath)

	return New(cfg.Effects, Dependencies{
		Frames: transcoder.NewFrameProcessor(cfg.Transcoder.FrameCodec, cfg.Transcoder.ProgressInterval),
		Clips: transcoder.NewClipEditor(ff.Path(), ff, transcoder.ExecRunner, transcoder.ClipOptions{
			VideoCodec: cfg.Transcoder.VideoCodec,
			AudioCodec: cfg.Transcoder.AudioCodec,
			Preset:     cfg.Transcoder.Preset,
		}),
		Prober: ff,
		Cache:  cache,
		Logger: logger,
	})
}

// ApplyEffect renders src with effect into dst and returns dst. The output
// only appears at dst once the whole pipeline succeeded; on failure nothing
// is left behind.
func (e *Engine) ApplyEffect(ctx context.Context, src string, effect models.EffectType, dst string, params models.EffectParams) (string, error) {
	job := &models.Job{
		ID:          uuid.New().String(),
		Source:      src,
		Effect:      effect,
		Params:      params,
		Destination: dst,
		StartedAt:   time.Now(),
	}

	span, ctx := tracing.StartSpan(ctx, "effect.apply")
	defer tracing.FinishSpan(span)
	tracing.SetTag(span, "job_id", job.ID)
	tracing.SetTag(span, "effect", string(effect))

	if e.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.JobTimeout)
		defer cancel()
	}

	logger := e.logger.WithJobID(job.ID).WithEffect(string(effect)).WithSource(src)
	strategy := StrategyOf(effect)

	metrics.RecordJobStarted()
	frames, err := e.run(ctx, job, logger)
	duration := time.Since(job.StartedAt)

	status := models.JobStatusCompleted
	if err != nil {
		err = wrap(effect, src, err)
		status = models.JobStatusFailed
		if errors.Is(err, ErrTimeout) {
			status = models.JobStatusTimeout
		}
		metrics.RecordError("engine", KindName(err))
		tracing.LogError(span, err)
	}
	metrics.RecordJobFinished(string(effect), string(strategy), status, duration.Seconds())

	details := map[string]interface{}{
		"destination": dst,
		"strategy":    string(strategy),
		"duration_ms": duration.Milliseconds(),
	}
	if err != nil {
		details["error"] = err.Error()
		details["kind"] = KindName(err)
		logger.LogEffectEvent("apply", status, details)
		return "", err
	}

	if frames > 0 {
		details["frames"] = frames
		metrics.RecordFrames(string(effect), frames)
	}
	logger.LogEffectEvent("apply", status, details)

	return dst, nil
}

func (e *Engine) run(ctx context.Context, job *models.Job, logger *logging.Logger) (int, error) {
	if !job.Effect.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownEffect, job.Effect)
	}

	stat, err := e.validator.Validate(job.Source)
	if err != nil {
		return 0, err
	}
	metrics.RecordInputSize(stat.Size())

	if err := checkDestination(job.Source, job.Destination); err != nil {
		return 0, err
	}

	h, err := e.resolve(job)
	if err != nil {
		return 0, err
	}

	partial := partialPath(job.Destination, job.ID)
	logger.Debugf("Rendering %s into %s", h.strategy, partial)

	frames, err := h.run(ctx, job, partial)
	if err == nil {
		// A render can finish just as the deadline passes; the job still
		// counts as timed out.
		err = ctx.Err()
	}
	if err != nil {
		if rmErr := os.Remove(partial); rmErr != nil && !os.IsNotExist(rmErr) {
			logger.WithError(rmErr).Warn("Failed to remove partial output")
		}
		return 0, err
	}

	if err := os.Rename(partial, job.Destination); err != nil {
		os.Remove(partial)
		return 0, fmt.Errorf("%w: finalize output: %v", ErrRender, err)
	}

	return frames, nil
}

// checkDestination rejects destinations that cannot receive an output
// without touching the filesystem
func checkDestination(src, dst string) error {
	if strings.TrimSpace(dst) == "" {
		return fmt.Errorf("%w: empty destination", ErrInvalidParameter)
	}
	if filepath.Ext(dst) == "" {
		return fmt.Errorf("%w: destination %q has no container extension", ErrInvalidParameter, dst)
	}

	srcAbs, err := filepath.Abs(src)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	dstAbs, err := filepath.Abs(dst)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	if srcAbs == dstAbs {
		return fmt.Errorf("%w: destination is the source file", ErrInvalidParameter)
	}
	if srcStat, err := os.Stat(src); err == nil {
		if dstStat, err := os.Stat(dst); err == nil && os.SameFile(srcStat, dstStat) {
			return fmt.Errorf("%w: destination is the source file", ErrInvalidParameter)
		}
	}

	dir, err := os.Stat(filepath.Dir(dstAbs))
	if err != nil {
		return fmt.Errorf("%w: destination directory: %v", ErrCodecOpen, err)
	}
	if !dir.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrCodecOpen, filepath.Dir(dstAbs))
	}
	return nil
}

// partialPath names the in-progress output next to dst. The container
// extension is kept so the encoder picks the same muxer.
func partialPath(dst, jobID string) string {
	ext := filepath.Ext(dst)
	stem := strings.TrimSuffix(filepath.Base(dst), ext)
	id := strings.ReplaceAll(jobID, "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return filepath.Join(filepath.Dir(dst), fmt.Sprintf(".%s.%s.partial%s", stem, id, ext))
}

// VideoInfo probes src without processing it. Results are cached by file
// identity when a cache is configured.
func (e *Engine) VideoInfo(ctx context.Context, src string) (*models.VideoInfo, error) {
	span, ctx := tracing.StartSpan(ctx, "effect.probe")
	defer tracing.FinishSpan(span)

	info, err := e.videoInfo(ctx, src)
	if err != nil {
		err = wrap("", src, err)
		metrics.RecordError("probe", KindName(err))
		tracing.LogError(span, err)
		return nil, err
	}
	return info, nil
}

func (e *Engine) videoInfo(ctx context.Context, src string) (*models.VideoInfo, error) {
	stat, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, src)
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, src)
	}

	if e.cache != nil {
		cached, err := e.cache.GetVideoInfo(ctx, src, stat)
		if err != nil {
			e.logger.WithError(err).Warn("Probe cache lookup failed")
		}
		metrics.RecordCacheAccess("probe", cached != nil)
		if cached != nil {
			return cached, nil
		}
	}

	info, err := e.prober.VideoInfo(ctx, src)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrCodecOpen, err)
	}

	if e.cache != nil {
		if err := e.cache.SetVideoInfo(ctx, src, stat, info, e.cfg.ProbeCacheTTL); err != nil {
			e.logger.WithError(err).Warn("Failed to cache probe result")
		}
	}

	return info, nil
}

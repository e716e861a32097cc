package engine

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/therealutkarshpriyadarshi/vfx/internal/config"
	"github.com/therealutkarshpriyadarshi/vfx/internal/logging"
	"github.com/therealutkarshpriyadarshi/vfx/pkg/models"
)

// makeClip renders a 1 second 64x48 clip at 10 fps, skipping the test when
// ffmpeg is unavailable
func makeClip(t *testing.T, withAudio bool) string {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping ffmpeg test in short mode")
	}
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not available", bin)
		}
	}

	path := filepath.Join(t.TempDir(), "source.mp4")
	args := []string{"-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", "testsrc=size=64x48:rate=10:duration=1"}
	if withAudio {
		args = append(args, "-f", "lavfi", "-i", "sine=frequency=440:duration=1", "-c:a", "aac")
	}
	args = append(args, "-c:v", "mpeg4", "-y", path)

	out, err := exec.Command("ffmpeg", args...).CombinedOutput()
	if err != nil {
		t.Skipf("Could not generate test clip: %v: %s", err, out)
	}
	return path
}

func newIntegrationEngine(t *testing.T) *Engine {
	t.Helper()

	cfg := config.Default()
	// mpeg4 ships with every ffmpeg build, libx264 does not
	cfg.Transcoder.VideoCodec = "mpeg4"
	cfg.Transcoder.Preset = ""
	return NewFromConfig(cfg, logging.NewNopLogger(), nil)
}

func TestIntegrationVideoInfo(t *testing.T) {
	src := makeClip(t, false)
	e := newIntegrationEngine(t)

	info, err := e.VideoInfo(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, "source.mp4", info.Filename)
	assert.Equal(t, "mp4", info.Format)
	assert.Equal(t, 64, info.Width)
	assert.Equal(t, 48, info.Height)
	assert.InDelta(t, 10, info.FPS, 0.01)
	assert.Equal(t, 10, info.FrameCount)
	assert.InDelta(t, 1.0, info.DurationSeconds, 0.05)
	assert.False(t, info.HasAudio)

	stat, err := os.Stat(src)
	require.NoError(t, err)
	assert.Equal(t, models.SizeInMB(stat.Size()), info.SizeMB)
}

func TestIntegrationFrameEffectsPreserveGeometry(t *testing.T) {
	src := makeClip(t, false)
	e := newIntegrationEngine(t)

	before, err := e.VideoInfo(context.Background(), src)
	require.NoError(t, err)

	params := map[models.EffectType]models.EffectParams{
		models.EffectBlur:    {"strength": 5},
		models.EffectCartoon: {"diameter": 5},
	}

	for _, effect := range models.AllEffects() {
		if StrategyOf(effect) != models.StrategyFrameStream {
			continue
		}
		t.Run(string(effect), func(t *testing.T) {
			dst := filepath.Join(t.TempDir(), OutputName(src, effect))

			out, err := e.ApplyEffect(context.Background(), src, effect, dst, params[effect])
			require.NoError(t, err)

			stat, err := os.Stat(out)
			require.NoError(t, err)
			assert.Greater(t, stat.Size(), int64(0))

			after, err := e.VideoInfo(context.Background(), out)
			require.NoError(t, err)
			assert.Equal(t, before.Width, after.Width)
			assert.Equal(t, before.Height, after.Height)
			assert.InDelta(t, before.FPS, after.FPS, 0.01)
			assert.Equal(t, before.FrameCount, after.FrameCount)
		})
	}
}

func TestIntegrationRetimeRoundTrip(t *testing.T) {
	src := makeClip(t, true)
	e := newIntegrationEngine(t)
	dir := t.TempDir()

	fast, err := e.ApplyEffect(context.Background(), src, models.EffectSpeedUp, filepath.Join(dir, "fast.mp4"), nil)
	require.NoError(t, err)
	info, err := e.VideoInfo(context.Background(), fast)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, info.DurationSeconds, 0.2)
	assert.True(t, info.HasAudio)

	restored, err := e.ApplyEffect(context.Background(), fast, models.EffectSlowMotion, filepath.Join(dir, "restored.mp4"), nil)
	require.NoError(t, err)
	info, err = e.VideoInfo(context.Background(), restored)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, info.DurationSeconds, 0.25)
}

func TestIntegrationReverseTwice(t *testing.T) {
	src := makeClip(t, true)
	e := newIntegrationEngine(t)
	dir := t.TempDir()

	once, err := e.ApplyEffect(context.Background(), src, models.EffectReverse, filepath.Join(dir, "once.mp4"), nil)
	require.NoError(t, err)
	twice, err := e.ApplyEffect(context.Background(), once, models.EffectReverse, filepath.Join(dir, "twice.mp4"), nil)
	require.NoError(t, err)

	before, err := e.VideoInfo(context.Background(), src)
	require.NoError(t, err)
	after, err := e.VideoInfo(context.Background(), twice)
	require.NoError(t, err)
	assert.InDelta(t, before.DurationSeconds, after.DurationSeconds, 0.15)
	assert.Equal(t, before.Width, after.Width)
	assert.Equal(t, before.Height, after.Height)
}

func TestIntegrationTextOverlay(t *testing.T) {
	src := makeClip(t, false)

	out, _ := exec.Command("ffmpeg", "-hide_banner", "-filters").CombinedOutput()
	if !strings.Contains(string(out), " drawtext ") {
		t.Skip("drawtext filter not available")
	}

	e := newIntegrationEngine(t)
	dst := filepath.Join(t.TempDir(), "caption.mp4")

	_, err := e.ApplyEffect(context.Background(), src, models.EffectTextOverlay, dst, models.EffectParams{
		"text":      "it's 100%: done",
		"font_size": 12,
		"duration":  0.5,
	})
	require.NoError(t, err)
	assert.FileExists(t, dst)
}

func TestIntegrationNotImplementedCreatesNothing(t *testing.T) {
	src := makeClip(t, false)
	e := newIntegrationEngine(t)
	dir := t.TempDir()

	_, err := e.ApplyEffect(context.Background(), src, models.EffectGlitch, filepath.Join(dir, "glitch.mp4"), nil)
	assert.ErrorIs(t, err, ErrNotImplemented)
	assert.Empty(t, dirEntries(t, dir))
}

package transcoder

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"github.com/therealutkarshpriyadarshi/vfx/pkg/models"
)

// Prober reads video metadata
type Prober interface {
	VideoInfo(ctx context.Context, path string) (*models.VideoInfo, error)
}

// CommandRunner runs an external command and returns its combined output
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// ClipOptions holds the encoder settings for whole-clip renders
type ClipOptions struct {
	VideoCodec string
	AudioCodec string
	Preset     string
}

// ClipEditor renders whole-clip transforms through ffmpeg filter graphs.
// Audio is carried through (and transformed) only when the source has it.
type ClipEditor struct {
	ffmpegPath string
	prober     Prober
	run        CommandRunner
	opts       ClipOptions
}

// NewClipEditor creates a clip editor. A nil runner uses ExecRunner.
func NewClipEditor(ffmpegPath string, prober Prober, run CommandRunner, opts ClipOptions) *ClipEditor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if run == nil {
		run = ExecRunner
	}
	if opts.VideoCodec == "" {
		opts.VideoCodec = "libx264"
	}
	if opts.AudioCodec == "" {
		opts.AudioCodec = "aac"
	}
	return &ClipEditor{
		ffmpegPath: ffmpegPath,
		prober:     prober,
		run:        run,
		opts:       opts,
	}
}

// Retime changes playback speed by factor: below 1 slows down, above 1
// speeds up. Duration scales by 1/factor and audio pitch is preserved.
func (c *ClipEditor) Retime(ctx context.Context, src, dst string, factor float64) error {
	if factor <= 0 || math.IsInf(factor, 0) || math.IsNaN(factor) {
		return fmt.Errorf("%w: speed factor must be positive, got %v", models.ErrInvalidParameter, factor)
	}

	info, err := c.load(ctx, src)
	if err != nil {
		return err
	}

	input := ffmpeg.Input(src)
	streams := []*ffmpeg.Stream{
		input.Video().Filter("setpts", ffmpeg.Args{"PTS/" + formatFloat(factor)}),
	}
	if info.HasAudio {
		audio := input.Audio()
		for _, step := range atempoChain(factor) {
			audio = audio.Filter("atempo", ffmpeg.Args{formatFloat(step)})
		}
		streams = append(streams, audio)
	}

	kwargs := c.outputArgs(info)
	if info.FPS > 0 {
		kwargs["r"] = formatFloat(info.FPS)
	}

	return c.render(ctx, ffmpeg.Output(streams, dst, kwargs))
}

// Reverse plays the clip backwards
func (c *ClipEditor) Reverse(ctx context.Context, src, dst string) error {
	info, err := c.load(ctx, src)
	if err != nil {
		return err
	}

	input := ffmpeg.Input(src)
	streams := []*ffmpeg.Stream{input.Video().Filter("reverse", ffmpeg.Args{})}
	if info.HasAudio {
		streams = append(streams, input.Audio().Filter("areverse", ffmpeg.Args{}))
	}

	return c.render(ctx, ffmpeg.Output(streams, dst, c.outputArgs(info)))
}

func (c *ClipEditor) load(ctx context.Context, src string) (*models.VideoInfo, error) {
	info, err := c.prober.VideoInfo(ctx, src)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrClipLoad, src, err)
	}
	return info, nil
}

func (c *ClipEditor) outputArgs(info *models.VideoInfo) ffmpeg.KwArgs {
	kwargs := ffmpeg.KwArgs{"c:v": c.opts.VideoCodec}
	if c.opts.Preset != "" {
		kwargs["preset"] = c.opts.Preset
	}
	if info.HasAudio {
		kwargs["c:a"] = c.opts.AudioCodec
	}
	return kwargs
}

func (c *ClipEditor) render(ctx context.Context, stream *ffmpeg.Stream) error {
	args := stream.OverWriteOutput().GetArgs()
	args = append([]string{"-hide_banner", "-loglevel", "error"}, args...)

	output, err := c.run(ctx, c.ffmpegPath, args...)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v: %s", ErrRender, err, tail(string(output), 512))
	}
	return nil
}

// atempoChain splits factor into atempo steps within [0.5, 2]
func atempoChain(factor float64) []float64 {
	var steps []float64
	for factor > 2 {
		steps = append(steps, 2)
		factor /= 2
	}
	for factor < 0.5 {
		steps = append(steps, 0.5)
		factor /= 0.5
	}
	if factor != 1 || len(steps) == 0 {
		steps = append(steps, factor)
	}
	return steps
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

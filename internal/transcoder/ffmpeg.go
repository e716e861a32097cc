package transcoder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/therealutkarshpriyadarshi/vfx/pkg/models"
)

// FFmpeg wraps FFmpeg operations
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
}

// NewFFmpeg creates a new FFmpeg instance
func NewFFmpeg(ffmpegPath, ffprobePath string) *FFmpeg {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpeg{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
	}
}

// Path returns the ffmpeg binary used for rendering
func (f *FFmpeg) Path() string {
	return f.ffmpegPath
}

// VideoMetadata holds video metadata extracted from ffprobe
type VideoMetadata struct {
	Format  FormatInfo   `json:"format"`
	Streams []StreamInfo `json:"streams"`
}

// FormatInfo holds format information
type FormatInfo struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
}

// StreamInfo holds stream information
type StreamInfo struct {
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	BitRate      string `json:"bit_rate"`
	FrameRate    string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	Duration     string `json:"duration"`
	NbFrames     string `json:"nb_frames"`
}

// ProbeVideo extracts metadata from a video file
func (f *FFmpeg) ProbeVideo(ctx context.Context, inputPath string) (*VideoMetadata, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		inputPath,
	}

	cmd := exec.CommandContext(ctx, f.ffprobePath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffprobe failed: %w, stderr: %s", err, stderr.String())
	}

	var metadata VideoMetadata
	if err := json.Unmarshal(stdout.Bytes(), &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	return &metadata, nil
}

// VideoInfo probes inputPath and returns its descriptive metadata. The file
// is only read.
func (f *FFmpeg) VideoInfo(ctx context.Context, inputPath string) (*models.VideoInfo, error) {
	stat, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}

	metadata, err := f.ProbeVideo(ctx, inputPath)
	if err != nil {
		return nil, err
	}

	return BuildVideoInfo(inputPath, stat.Size(), metadata)
}

// BuildVideoInfo converts ffprobe metadata to a VideoInfo. Containers that do
// not record a frame count get one estimated from duration and frame rate.
func BuildVideoInfo(path string, size int64, metadata *VideoMetadata) (*models.VideoInfo, error) {
	info := &models.VideoInfo{
		Path:      path,
		Filename:  filepath.Base(path),
		Format:    models.FormatOf(path),
		SizeBytes: size,
		SizeMB:    models.SizeInMB(size),
	}

	var video *StreamInfo
	for i := range metadata.Streams {
		stream := &metadata.Streams[i]
		switch stream.CodecType {
		case "video":
			if video == nil {
				video = stream
			}
		case "audio":
			info.HasAudio = true
		}
	}

	if video == nil {
		return nil, fmt.Errorf("no video stream in %s", info.Filename)
	}

	info.Width = video.Width
	info.Height = video.Height
	info.Codec = video.CodecName

	info.FPS = parseRate(video.AvgFrameRate)
	if info.FPS == 0 {
		info.FPS = parseRate(video.FrameRate)
	}

	if duration, err := strconv.ParseFloat(metadata.Format.Duration, 64); err == nil {
		info.DurationSeconds = duration
	} else if duration, err := strconv.ParseFloat(video.Duration, 64); err == nil {
		info.DurationSeconds = duration
	}

	if frames, err := strconv.Atoi(video.NbFrames); err == nil && frames > 0 {
		info.FrameCount = frames
	} else {
		info.FrameCount = models.EstimateFrameCount(info.DurationSeconds, info.FPS)
	}

	return info, nil
}

// parseRate parses an ffprobe rational such as "30000/1001"
func parseRate(rate string) float64 {
	parts := strings.Split(rate, "/")
	switch len(parts) {
	case 1:
		v, _ := strconv.ParseFloat(parts[0], 64)
		return v
	case 2:
		num, _ := strconv.ParseFloat(parts[0], 64)
		den, _ := strconv.ParseFloat(parts[1], 64)
		if den != 0 {
			return num / den
		}
	}
	return 0
}

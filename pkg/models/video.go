package models

import (
	"math"
	"path/filepath"
	"strings"
)

const bytesPerMB = 1024 * 1024

// VideoInfo describes a video asset on disk. It is produced by a read-only
// probe and never mutated by processing.
type VideoInfo struct {
	Path            string  `json:"path"`
	Filename        string  `json:"filename"`
	Format          string  `json:"format"`
	FPS             float64 `json:"fps"`
	FrameCount      int     `json:"frame_count"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	DurationSeconds float64 `json:"duration_seconds"`
	SizeBytes       int64   `json:"size_bytes"`
	SizeMB          float64 `json:"size_mb"`
	Codec           string  `json:"codec,omitempty"`
	HasAudio        bool    `json:"has_audio"`
}

// FormatOf returns the container format of path: its extension in lower
// case without the leading dot.
func FormatOf(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// SizeInMB converts a byte count to megabytes (MiB)
func SizeInMB(size int64) float64 {
	return float64(size) / bytesPerMB
}

// EstimateFrameCount derives a frame count from duration and frame rate for
// containers that do not record one.
func EstimateFrameCount(duration, fps float64) int {
	if duration <= 0 || fps <= 0 {
		return 0
	}
	return int(math.Round(duration * fps))
}

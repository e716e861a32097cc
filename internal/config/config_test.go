package config

import (
	"os"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	tmpfile, err := os.CreateTemp(t.TempDir(), "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpfile.Name()
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
effects:
  supportedFormats: [".MP4", "mov"]
  maxVideoSizeMB: 250
  jobTimeout: 90s
  batchConcurrency: 2

transcoder:
  frameCodec: "mjpeg"

logging:
  level: "debug"
  format: "console"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if len(cfg.Effects.SupportedFormats) != 2 || cfg.Effects.SupportedFormats[0] != "mp4" {
		t.Errorf("Expected normalized formats [mp4 mov], got %v", cfg.Effects.SupportedFormats)
	}
	if cfg.Effects.MaxVideoSizeMB != 250 {
		t.Errorf("Expected max size 250, got %v", cfg.Effects.MaxVideoSizeMB)
	}
	if cfg.Effects.JobTimeout != 90*time.Second {
		t.Errorf("Expected job timeout 90s, got %v", cfg.Effects.JobTimeout)
	}
	if cfg.Effects.BatchConcurrency != 2 {
		t.Errorf("Expected batch concurrency 2, got %d", cfg.Effects.BatchConcurrency)
	}
	if cfg.Transcoder.FrameCodec != "mjpeg" {
		t.Errorf("Expected frame codec mjpeg, got %s", cfg.Transcoder.FrameCodec)
	}
	// Untouched keys keep their defaults
	if cfg.Transcoder.VideoCodec != "libx264" {
		t.Errorf("Expected default video codec libx264, got %s", cfg.Transcoder.VideoCodec)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.Logging.Level)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Failed to load defaults: %v", err)
	}

	want := []string{"mp4", "avi", "mov", "mkv", "webm"}
	if len(cfg.Effects.SupportedFormats) != len(want) {
		t.Fatalf("Expected %d formats, got %v", len(want), cfg.Effects.SupportedFormats)
	}
	for i, f := range want {
		if cfg.Effects.SupportedFormats[i] != f {
			t.Errorf("Format %d: expected %s, got %s", i, f, cfg.Effects.SupportedFormats[i])
		}
	}
	if cfg.Effects.MaxVideoSizeMB != 500 {
		t.Errorf("Expected max size 500, got %v", cfg.Effects.MaxVideoSizeMB)
	}
	if cfg.Effects.JobTimeout != time.Hour {
		t.Errorf("Expected job timeout 1h, got %v", cfg.Effects.JobTimeout)
	}
	if cfg.Transcoder.FrameCodec != "mpeg4" {
		t.Errorf("Expected frame codec mpeg4, got %s", cfg.Transcoder.FrameCodec)
	}
	if cfg.Transcoder.ProgressInterval != 100 {
		t.Errorf("Expected progress interval 100, got %d", cfg.Transcoder.ProgressInterval)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("VFX_EFFECTS_SUPPORTEDFORMATS", "MP4, .webm")
	t.Setenv("VFX_EFFECTS_MAXVIDEOSIZEMB", "10")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if len(cfg.Effects.SupportedFormats) != 2 || cfg.Effects.SupportedFormats[1] != "webm" {
		t.Errorf("Expected [mp4 webm], got %v", cfg.Effects.SupportedFormats)
	}
	if cfg.Effects.MaxVideoSizeMB != 10 {
		t.Errorf("Expected max size 10, got %v", cfg.Effects.MaxVideoSizeMB)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"non-positive size", "effects:\n  maxVideoSizeMB: 0\n"},
		{"bad log level", "logging:\n  level: verbose\n"},
		{"negative concurrency", "effects:\n  batchConcurrency: -1\n"},
		{"storage without bucket", "storage:\n  enabled: true\n  bucketName: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Error("Expected error when loading nonexistent file")
	}
}

func TestNormalizeFormats(t *testing.T) {
	got := NormalizeFormats([]string{" .MKV ", "mp4,avi", "", "mkv"})
	want := []string{"mkv", "mp4", "avi"}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Index %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestLoadSampleConfig(t *testing.T) {
	cfg, err := Load("../../configs/vfx.yaml")
	if err != nil {
		t.Fatalf("Sample config should load: %v", err)
	}

	defaults := Default()
	if cfg.Effects.JobTimeout != defaults.Effects.JobTimeout {
		t.Errorf("Sample job timeout %v differs from default %v", cfg.Effects.JobTimeout, defaults.Effects.JobTimeout)
	}
	if cfg.Storage.Prefix != "renders" {
		t.Errorf("Expected storage prefix renders, got %q", cfg.Storage.Prefix)
	}
}

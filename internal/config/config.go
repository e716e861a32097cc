package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Effects    EffectsConfig
	Transcoder TranscoderConfig
	Logging    LoggingConfig
	Redis      RedisConfig
	Storage    StorageConfig
	Metrics    MetricsConfig
	Tracing    TracingConfig
}

// EffectsConfig holds input limits and job execution settings
type EffectsConfig struct {
	SupportedFormats []string `validate:"min=1,dive,required"`
	MaxVideoSizeMB   float64  `validate:"gt=0"`
	// JobTimeout of zero disables the per-job deadline
	JobTimeout time.Duration
	// BatchConcurrency of zero runs every batch item at once
	BatchConcurrency int `validate:"gte=0"`
	ProbeCacheTTL    time.Duration
}

// TranscoderConfig holds codec settings
type TranscoderConfig struct {
	FFmpegPath       string `validate:"required"`
	FFprobePath      string `validate:"required"`
	FrameCodec       string `validate:"required"`
	VideoCodec       string `validate:"required"`
	AudioCodec       string `validate:"required"`
	Preset           string
	ProgressInterval int `validate:"gt=0"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json console"`
	Output string
}

// RedisConfig holds Redis configuration for the probe cache
type RedisConfig struct {
	Enabled  bool
	Host     string `validate:"required_if=Enabled true"`
	Port     int    `validate:"required_if=Enabled true,gte=0,lte=65535"`
	Password string
	DB       int `validate:"gte=0"`
}

// StorageConfig holds object storage configuration for publishing outputs
type StorageConfig struct {
	Enabled         bool
	Endpoint        string `validate:"required_if=Enabled true"`
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string `validate:"required_if=Enabled true"`
	Region          string
	UseSSL          bool
	Prefix          string
}

// MetricsConfig holds Prometheus exporter configuration
type MetricsConfig struct {
	Enabled bool
	Port    int `validate:"required_if=Enabled true,gte=0,lte=65535"`
}

// TracingConfig holds Jaeger tracing configuration
type TracingConfig struct {
	Enabled     bool
	ServiceName string `validate:"required_if=Enabled true"`
	Endpoint    string
}

// Load reads configuration from an optional YAML file and VFX_* environment
// variables, then validates it. An empty configPath uses defaults and
// environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("VFX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.Effects.SupportedFormats = NormalizeFormats(config.Effects.SupportedFormats)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Default returns the built-in configuration
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("invalid default configuration: %v", err))
	}
	return cfg
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// NormalizeFormats lower-cases format names, strips leading dots and drops
// empty and duplicate entries. Entries may also be comma separated.
func NormalizeFormats(formats []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(formats))
	for _, entry := range formats {
		for _, f := range strings.Split(entry, ",") {
			f = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(f)), ".")
			if f == "" || seen[f] {
				continue
			}
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

func setDefaults(v *viper.Viper) {
	// Effects defaults
	v.SetDefault("effects.supportedFormats", []string{"mp4", "avi", "mov", "mkv", "webm"})
	v.SetDefault("effects.maxVideoSizeMB", 500)
	v.SetDefault("effects.jobTimeout", "3600s")
	v.SetDefault("effects.batchConcurrency", 4)
	v.SetDefault("effects.probeCacheTTL", "10m")

	// Transcoder defaults
	v.SetDefault("transcoder.ffmpegPath", "ffmpeg")
	v.SetDefault("transcoder.ffprobePath", "ffprobe")
	v.SetDefault("transcoder.frameCodec", "mpeg4")
	v.SetDefault("transcoder.videoCodec", "libx264")
	v.SetDefault("transcoder.audioCodec", "aac")
	v.SetDefault("transcoder.preset", "medium")
	v.SetDefault("transcoder.progressInterval", 100)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Storage defaults
	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.accessKeyID", "minioadmin")
	v.SetDefault("storage.secretAccessKey", "minioadmin")
	v.SetDefault("storage.bucketName", "vfx-outputs")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.useSSL", false)
	v.SetDefault("storage.prefix", "")

	// Metrics defaults
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9090)

	// Tracing defaults
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.serviceName", "vfx")
	v.SetDefault("tracing.endpoint", "localhost:6831")
}

package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/therealutkarshpriyadarshi/vfx/internal/config"
	"github.com/therealutkarshpriyadarshi/vfx/internal/logging"
	"github.com/therealutkarshpriyadarshi/vfx/internal/metrics"
)

// Storage publishes rendered outputs to an S3-compatible object store
type Storage struct {
	client     *minio.Client
	bucketName string
	prefix     string
	logger     *logging.Logger
}

// Published describes an uploaded output
type Published struct {
	LocalPath string `json:"local_path"`
	Object    string `json:"object"`
	URL       string `json:"url,omitempty"`
}

// New creates a new storage client and makes sure the bucket exists
func New(ctx context.Context, cfg config.StorageConfig, logger *logging.Logger) (*Storage, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	// Ensure bucket exists
	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{
			Region: cfg.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &Storage{
		client:     client,
		bucketName: cfg.BucketName,
		prefix:     cfg.Prefix,
		logger:     logger,
	}, nil
}

// UploadFile uploads a file from local filesystem
func (s *Storage) UploadFile(ctx context.Context, objectName, filePath string) error {
	contentType := getContentType(filePath)

	_, err := s.client.FPutObject(ctx, s.bucketName, objectName, filePath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}

	return nil
}

// GetURL returns a presigned URL for an object
func (s *Storage) GetURL(ctx context.Context, objectName string) (string, error) {
	url, err := s.client.PresignedGetObject(ctx, s.bucketName, objectName, time.Hour, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate URL: %w", err)
	}

	return url.String(), nil
}

// Publish uploads a rendered output under the configured prefix and returns
// its object name and a presigned download URL
func (s *Storage) Publish(ctx context.Context, localPath string) (*Published, error) {
	stat, err := os.Stat(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat output: %w", err)
	}

	object := objectName(s.prefix, localPath)
	start := time.Now()

	err = s.UploadFile(ctx, object, localPath)
	s.logger.LogStorageOperation("upload", s.bucketName, object, stat.Size(), time.Since(start), err)
	if err != nil {
		metrics.RecordStorageOperation("upload", "error", 0)
		return nil, err
	}
	metrics.RecordStorageOperation("upload", "success", stat.Size())

	url, err := s.GetURL(ctx, object)
	if err != nil {
		// The upload itself succeeded
		s.logger.ErrorWithErr("Failed to presign published output", err)
	}

	return &Published{LocalPath: localPath, Object: object, URL: url}, nil
}

// objectName joins prefix and the file's base name with forward slashes
func objectName(prefix, localPath string) string {
	name := filepath.Base(localPath)
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// getContentType returns the content type based on file extension
func getContentType(filePath string) string {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".avi":
		return "video/x-msvideo"
	case ".mkv":
		return "video/x-matroska"
	case ".webm":
		return "video/webm"
	default:
		return "application/octet-stream"
	}
}

// Package storage mirrors archive output to object storage.
package storage

import (
	"context"
	"fmt"

	"github.com/ignite/mailchimp-archive/internal/config"
	"github.com/ignite/mailchimp-archive/internal/pkg/logger"
)

// Mirror copies a finished local file to remote storage.
type Mirror interface {
	UploadFile(ctx context.Context, localPath, name string) error
}

// Noop is the mirror used when no bucket is configured.
type Noop struct{}

// UploadFile does nothing.
func (Noop) UploadFile(context.Context, string, string) error { return nil }

// New returns the S3 mirror for cfg, or Noop when mirroring is disabled.
func New(ctx context.Context, cfg config.StorageConfig) (Mirror, error) {
	if !cfg.Enabled() {
		return Noop{}, nil
	}

	client, err := NewS3Client(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing S3 mirror: %w", err)
	}

	logger.Info("s3 mirror enabled", "bucket", cfg.S3Bucket, "prefix", cfg.S3Prefix, "region", cfg.S3Region)
	return NewS3Mirror(client, cfg.S3Bucket, cfg.S3Prefix), nil
}

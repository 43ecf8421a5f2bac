package objectstore

import (
	"context"
	"fmt"

	"dr-go/internal/config"
	"dr-go/internal/dr"
)

// NewStoreFromConfig creates an ObjectStore implementation based on the
// object store config type.
func NewStoreFromConfig(ctx context.Context, cfg config.ObjectStoreConfig, secrets *config.Secrets) (dr.ObjectStore, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(), nil
	case "s3":
		return NewS3Store(ctx, S3Options{
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.S3Prefix,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: secrets.S3AccessKey,
			SecretKey: secrets.S3SecretKey,
		})
	default:
		return nil, fmt.Errorf("unknown object store type: %s", cfg.Type)
	}
}

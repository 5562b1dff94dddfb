package imagestore

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"pairchat-service/internal/config"
)

// NewClient connects to the object store and makes sure the bucket exists.
func NewClient(ctx context.Context, cfg config.ImagesConfig) (*minio.Client, error) {
	const op = "imagestore.NewClient"

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ensureBucket := func() error {
		exists, err := mc.BucketExists(ctx, cfg.Bucket)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		return mc.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{})
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(500*time.Millisecond), 5), ctx)
	if err := backoff.Retry(ensureBucket, policy); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return mc, nil
}

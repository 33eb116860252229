package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/occasio/occasio/internal/client/models"
	"github.com/occasio/occasio/internal/logging"
)

// s3Uploader is the slice of the S3 client the backup needs.
type s3Uploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// SnapshotBackup uploads the full user snapshot to an S3 bucket after a
// successful push. It only runs for users with cloud storage enabled; the
// engine checks the setting before calling Upload.
type SnapshotBackup struct {
	uploader s3Uploader
	bucket   string
	log      logging.Logger
	now      func() time.Time
}

// NewSnapshotBackup resolves AWS credentials from the default chain.
// Returns nil when bucket is empty; a nil backup disables the feature.
func NewSnapshotBackup(ctx context.Context, bucket string, log logging.Logger) (*SnapshotBackup, error) {
	if bucket == "" {
		return nil, nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return &SnapshotBackup{
		uploader: s3.NewFromConfig(cfg),
		bucket:   bucket,
		log:      log,
		now:      time.Now,
	}, nil
}

// Upload stores the snapshot under snapshots/<email>/<timestamp>.json.
// Password is stripped first; credentials never leave the login flow.
func (b *SnapshotBackup) Upload(ctx context.Context, user *models.User) error {
	snapshot := *user
	snapshot.Password = ""

	data, err := json.Marshal(&snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	key := fmt.Sprintf("snapshots/%s/%s.json", snapshot.Email, b.now().UTC().Format("20060102T150405Z"))
	contentType := "application/json"

	_, err = b.uploader.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &b.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload snapshot: %w", err)
	}

	b.log.Info(ctx, "snapshot uploaded", "bucket", b.bucket, "key", key)
	return nil
}

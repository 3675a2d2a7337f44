package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/readmark/readmark/internal/domain"
)

// S3Sink writes backup snapshots to an S3-compatible bucket instead of
// the CMS backup endpoint. One object per user, overwritten on every
// push; last-writer-wins matches the bookmark conflict policy.
type S3Sink struct {
	client *s3.Client
	bucket string
}

// NewS3Sink creates a sink for the given bucket. An empty endpoint
// uses AWS proper; otherwise any S3-compatible server works.
func NewS3Sink(ctx context.Context, bucket, region, endpoint string) (*S3Sink, error) {
	if bucket == "" {
		return nil, fmt.Errorf("backup bucket is required")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Sink{client: client, bucket: bucket}, nil
}

func backupKey(userID string) string {
	return "backups/" + userID + ".json"
}

// PushBackup stores the snapshot as a JSON object.
func (s *S3Sink) PushBackup(ctx context.Context, userID string, snap domain.BackupSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal backup snapshot: %w", err)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(backupKey(userID)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
	}
	return nil
}

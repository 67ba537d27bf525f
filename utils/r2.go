package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"game-session-system/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const archiveManifestPrefix = "session-archives"

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ArchiveManifest lists the sessions one sweep marked as archived.
type ArchiveManifest struct {
	SweptAt    time.Time `json:"swept_at"`
	Count      int       `json:"count"`
	SessionIDs []string  `json:"session_ids"`
}

// ArchiveManifestUploader writes one JSON manifest per sweep to an R2 bucket
// so downstream cold-storage jobs know which sessions to export.
type ArchiveManifestUploader struct {
	client objectPutter
	bucket string
}

// NewR2ArchiveUploader builds an uploader for the Cloudflare R2 bucket in cfg.
func NewR2ArchiveUploader(ctx context.Context, cfg config.R2Config) (*ArchiveManifestUploader, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.AccessKeySecret, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})
	return &ArchiveManifestUploader{client: client, bucket: cfg.Bucket}, nil
}

// ManifestKey is the object key for a sweep run at sweptAt.
func ManifestKey(sweptAt time.Time) string {
	t := sweptAt.UTC()
	return fmt.Sprintf("%s/%s/%s.json", archiveManifestPrefix, t.Format("2006/01/02"), t.Format("20060102T150405Z"))
}

func (u *ArchiveManifestUploader) RecordArchived(ctx context.Context, sweptAt time.Time, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	body, err := json.Marshal(ArchiveManifest{SweptAt: sweptAt.UTC(), Count: len(ids), SessionIDs: ids})
	if err != nil {
		return fmt.Errorf("failed to encode archive manifest: %w", err)
	}

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(ManifestKey(sweptAt)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to R2: %w", err)
	}
	return nil
}

package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/iliyamo/vidtube/internal/config"
)

// S3Uploader stores assets in an S3-compatible bucket (AWS or MinIO).
type S3Uploader struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// NewS3Uploader builds the client once at startup from validated config.
func NewS3Uploader(cfg config.S3Config) (*S3Uploader, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey, cfg.SecretKey, "")))
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Uploader{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// Upload writes the object and returns its public URL.
func (u *S3Uploader) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &u.bucket,
		Key:         &key,
		Body:        body,
		ContentType: &contentType,
	})
	if err != nil {
		return "", err
	}
	return u.baseURL + "/" + key, nil
}

// ObjectKey builds a collision-free storage key partitioned by date, e.g.
// "users/2026/8/29/<uuid>-avatar".
func ObjectKey(suffix string) string {
	d := time.Now().UTC()
	return fmt.Sprintf("users/%d/%d/%d/%s-%s", d.Year(), d.Month(), d.Day(), uuid.NewString(), suffix)
}

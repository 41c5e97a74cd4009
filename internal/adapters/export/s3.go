package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/example/triage/internal/ports/secondary"
)

// S3Options configures the S3 client. Empty fields fall back to the default
// AWS credential and region chain.
type S3Options struct {
	Region          string
	Endpoint        string // optional; for MinIO or other S3-compatible stores
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
}

// putObjectAPI is the slice of the S3 client the sink uses.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink writes snapshots to one object key.
type S3Sink struct {
	client putObjectAPI
	bucket string
	key    string
}

// NewS3Sink builds an S3 client from opts and returns a sink for bucket/key.
func NewS3Sink(ctx context.Context, bucket, key string, opts S3Options) (*S3Sink, error) {
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("s3 export needs a bucket and key, got %q/%q", bucket, key)
	}
	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.PathStyle {
			o.UsePathStyle = true
		}
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})
	return &S3Sink{client: client, bucket: bucket, key: key}, nil
}

// Write uploads data as the object body.
func (s *S3Sink) Write(ctx context.Context, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload snapshot to s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return nil
}

var _ secondary.SnapshotSink = (*S3Sink)(nil)

package transfer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"

	"github.com/medallia/speech-api-reference-implementation/internal/util"
)

// DefaultRegion is the region used to sign MMFT requests
const DefaultRegion = "us-east-1"

// MMFTOptions locates the media file transfer bucket
type MMFTOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Folder    string
	Region    string

	// MaxAttempts is handed to the SDK retryer; zero keeps the SDK default
	MaxAttempts int
}

// s3API is the subset of the S3 client used for uploads
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader stores files in the MMFT bucket through its S3 compatible API
type Uploader struct {
	api    s3API
	bucket string
	folder string
	logger *slog.Logger
}

// NewUploader builds an S3 client for the MMFT endpoint with static
// credentials and path style addressing
func NewUploader(ctx context.Context, opts MMFTOptions, logger *slog.Logger) (*Uploader, error) {
	region := opts.Region
	if region == "" {
		region = DefaultRegion
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")),
	}
	if opts.MaxAttempts > 0 {
		loadOpts = append(loadOpts, awsconfig.WithRetryMaxAttempts(opts.MaxAttempts))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 configuration: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(opts.Endpoint)
		o.UsePathStyle = true
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})

	return newUploader(client, opts, logger), nil
}

func newUploader(api s3API, opts MMFTOptions, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{
		api:    api,
		bucket: opts.Bucket,
		folder: opts.Folder,
		logger: logger,
	}
}

// Key returns the object key a file named name is stored under
func (u *Uploader) Key(name string) string {
	return util.ObjectKey(u.folder, name)
}

// Upload stores data under the folder of the bucket
func (u *Uploader) Upload(ctx context.Context, name string, data []byte) error {
	key := u.Key(name)
	u.logger.Debug("uploading", "bucket", u.bucket, "key", key, "bytes", len(data))

	_, err := u.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(mimetype.Detect(data).String()),
	})
	if err != nil {
		return fmt.Errorf("failed uploading %s to bucket %s: %w", key, u.bucket, err)
	}
	return nil
}

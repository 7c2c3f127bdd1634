package objects

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

const DefaultRegion = "us-east-1"

// S3API is the subset of the S3 client used for the folder marker.
type S3API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type s3RootFolder struct {
	client S3API
	bucket string
	key    string
}

// NewS3RootFolder represents the folder as a zero-byte "prefix/" marker object in bucket.
func NewS3RootFolder(client S3API, bucket, prefix string) (RootFolder, error) {
	if client == nil {
		return nil, fmt.Errorf("s3 client is nil")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return nil, fmt.Errorf("root folder prefix is required")
	}
	return &s3RootFolder{client: client, bucket: bucket, key: prefix + "/"}, nil
}

// NewS3Client builds a client from the shared AWS config, optionally for a named profile.
func NewS3Client(ctx context.Context, region, profile string) (*s3.Client, error) {
	if region == "" {
		region = DefaultRegion
	}
	opts := []func(*config.LoadOptions) error{config.WithDefaultRegion(region)}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}
	return s3.NewFromConfig(awsCfg), nil
}

func (f *s3RootFolder) EnsureRootFolder(ctx context.Context) error {
	_, err := f.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: awssdk.String(f.bucket),
		Key:    awssdk.String(f.key),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchKey) {
		return fmt.Errorf("check root folder s3://%s/%s: %w", f.bucket, f.key, err)
	}

	_, err = f.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      awssdk.String(f.bucket),
		Key:         awssdk.String(f.key),
		Body:        bytes.NewReader(nil),
		ContentType: awssdk.String("application/x-directory"),
	})
	if err != nil {
		return fmt.Errorf("create root folder s3://%s/%s: %w", f.bucket, f.key, err)
	}
	zerolog.Ctx(ctx).Info().Str("bucket", f.bucket).Str("key", f.key).Msg("root folder created")
	return nil
}

func (f *s3RootFolder) Location() string {
	return fmt.Sprintf("s3://%s/%s", f.bucket, f.key)
}

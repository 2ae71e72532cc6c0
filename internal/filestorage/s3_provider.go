package filestorage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3LinkSigner presigns GetObject requests. Presigning is local; no request reaches S3.
type S3LinkSigner struct {
	presign *s3.PresignClient
	bucket  string
}

func NewS3LinkSigner(awsCfg aws.Config, bucket string) (*S3LinkSigner, error) {
	if bucket == "" {
		return nil, errors.New("AWS_S3_BUCKET is not set")
	}
	return &S3LinkSigner{presign: s3.NewPresignClient(s3.NewFromConfig(awsCfg)), bucket: bucket}, nil
}

// NewS3LinkSignerFromEnv loads credentials the usual AWS way: env vars, shared files or an IAM role.
func NewS3LinkSignerFromEnv(ctx context.Context, region, bucket string) (*S3LinkSigner, error) {
	if region == "" {
		return nil, errors.New("AWS_REGION is not set")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS SDK config for S3: %w", err)
	}
	return NewS3LinkSigner(awsCfg, bucket)
}

func (s *S3LinkSigner) SignedURL(ctx context.Context, objectKey string, ttl time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign s3 object %s/%s: %w", s.bucket, objectKey, err)
	}
	return req.URL, nil
}

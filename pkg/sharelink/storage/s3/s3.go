// Package s3 adapts an S3-compatible store as a sharelink.URLSigner using
// SDK presigned GET requests. It is an alternative to the native OSS
// signer for deployments on S3 or MinIO.
package s3

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/tendant/simple-sharelink/pkg/sharelink"
)

// Config options for the S3 signer
type Config struct {
	Region          string // AWS region
	Bucket          string // Default bucket for tickets without an override
	AccessKeyID     string // Access key ID
	SecretAccessKey string // Secret access key
	Endpoint        string // Optional custom endpoint for S3-compatible services
	UsePathStyle    bool   // Use path-style addressing (default: false)
}

// Signer presigns GET requests against an S3-compatible endpoint. The
// endpoint is fixed at construction; per-ticket endpoint overrides are not
// supported by the SDK presigner and are ignored.
type Signer struct {
	presignClient *s3.PresignClient
	bucket        string
}

// New creates a new S3-compatible URL signer
func New(config Config) (*Signer, error) {
	if config.Region == "" {
		config.Region = "us-east-1"
	}

	var awsCfg aws.Config
	var err error

	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(config.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				config.AccessKeyID,
				config.SecretAccessKey,
				"",
			)),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(config.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Options []func(*s3.Options)
	if config.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(config.Endpoint)
			o.UsePathStyle = config.UsePathStyle
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Options...)

	return &Signer{
		presignClient: s3.NewPresignClient(client),
		bucket:        config.Bucket,
	}, nil
}

// SignDownloadURL returns a presigned GET URL whose validity window ends at
// req.ExpiresAt.
func (s *Signer) SignDownloadURL(ctx context.Context, req sharelink.SignURLRequest) (*sharelink.SignedURL, error) {
	bucket := req.Bucket
	if bucket == "" {
		bucket = s.bucket
	}
	if bucket == "" {
		return nil, sharelink.ErrMissingBucket
	}

	expiresIn := time.Until(req.ExpiresAt)
	if expiresIn <= 0 {
		return nil, sharelink.ErrLinkExpired
	}

	input := &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(req.ObjectKey),
	}
	if req.DownloadFilename != "" {
		input.ResponseContentDisposition = aws.String(fmt.Sprintf("attachment; filename=\"%s\"", req.DownloadFilename))
	}

	result, err := s.presignClient.PresignGetObject(ctx, input, func(opts *s3.PresignOptions) {
		opts.Expires = expiresIn
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sharelink.ErrSigningFailure, err)
	}

	return &sharelink.SignedURL{URL: result.URL, ExpiresAt: req.ExpiresAt}, nil
}

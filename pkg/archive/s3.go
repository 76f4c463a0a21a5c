package archive

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hashicorp/go-hclog"
)

// S3Config configures the S3 mirror of exported archives.
type S3Config struct {
	Endpoint  string `hcl:"endpoint,optional"`   // S3 endpoint URL, empty for AWS
	Region    string `hcl:"region"`              // AWS region (e.g., "us-west-2")
	Bucket    string `hcl:"bucket"`              // S3 bucket name
	Prefix    string `hcl:"prefix,optional"`     // Optional key prefix (e.g., "exports/")
	AccessKey string `hcl:"access_key,optional"` // Access key ID
	SecretKey string `hcl:"secret_key,optional"` // Secret access key

	InsecureSkipVerify bool `hcl:"insecure_skip_verify,optional"` // Skip TLS verification (for testing only)
}

// Validate validates the S3 configuration.
func (c *S3Config) Validate() error {
	if c.Region == "" {
		return fmt.Errorf("region is required")
	}
	if c.Bucket == "" {
		return fmt.Errorf("bucket is required")
	}
	if (c.AccessKey == "") != (c.SecretKey == "") {
		return fmt.Errorf("access_key and secret_key must be set together")
	}
	return nil
}

// s3API is the subset of the S3 client the store uses.
type s3API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store writes archives to an S3-compatible bucket.
type S3Store struct {
	client s3API
	cfg    *S3Config
	logger hclog.Logger
}

var _ Store = (*S3Store)(nil)

// NewS3Store creates a store for the configured bucket.
func NewS3Store(ctx context.Context, cfg *S3Config, logger hclog.Logger) (*S3Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid S3 configuration: %w", err)
	}

	awsCfg, err := createAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// Path-style addressing for MinIO and similar services.
			o.UsePathStyle = true
		}
	})

	return newS3Store(client, cfg, logger), nil
}

func newS3Store(client s3API, cfg *S3Config, logger hclog.Logger) *S3Store {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &S3Store{
		client: client,
		cfg:    cfg,
		logger: logger.Named("s3"),
	}
}

func createAWSConfig(ctx context.Context, cfg *S3Config) (aws.Config, error) {
	httpClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.InsecureSkipVerify,
			},
		},
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithHTTPClient(httpClient),
	}

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	return awsconfig.LoadDefaultConfig(ctx, opts...)
}

// Key returns the object key for an archive name.
func (s *S3Store) Key(name string) string {
	if s.cfg.Prefix == "" {
		return name
	}
	return path.Join(strings.TrimSuffix(s.cfg.Prefix, "/"), name)
}

// Save puts the archive under its key. An existing object is copied to
// <key>.bak first.
func (s *S3Store) Save(ctx context.Context, name string, data []byte) (*SaveResult, error) {
	key := s.Key(name)
	result := &SaveResult{Location: "s3://" + s.cfg.Bucket + "/" + key}

	exists, err := s.exists(ctx, key)
	if err != nil {
		return nil, err
	}
	if exists {
		backup := key + BackupSuffix
		_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
			Bucket:     aws.String(s.cfg.Bucket),
			Key:        aws.String(backup),
			CopySource: aws.String(copySource(s.cfg.Bucket, key)),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to back up object %s: %w", key, err)
		}
		result.Backup = "s3://" + s.cfg.Bucket + "/" + backup
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to put object %s: %w", key, err)
	}

	s.logger.Debug("archive mirrored", "location", result.Location, "backup", result.Backup)
	return result, nil
}

// copySource escapes each segment of key so the separators survive.
func copySource(bucket, key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return bucket + "/" + strings.Join(parts, "/")
}

func (s *S3Store) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}

	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check object %s: %w", key, err)
}

package archive

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds the client settings for an s3:// location.
type S3Config struct {
	Region          string
	Endpoint        string
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// S3ConfigFromEnv reads the standard AWS_* variables. AWS_ENDPOINT_URL
// points the client at an S3-compatible service such as MinIO, and
// switches to path-style addressing.
func S3ConfigFromEnv() S3Config {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = os.Getenv("AWS_DEFAULT_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}
	endpoint := os.Getenv("AWS_ENDPOINT_URL_S3")
	if endpoint == "" {
		endpoint = os.Getenv("AWS_ENDPOINT_URL")
	}
	return S3Config{
		Region:          region,
		Endpoint:        endpoint,
		PathStyle:       endpoint != "",
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
	}
}

// NewS3Client builds an S3 client from cfg. Without an access key the
// client sends anonymous requests.
func NewS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		UsePathStyle: cfg.PathStyle,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKeyID != "" {
		creds := aws.Credentials{
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			SessionToken:    cfg.SessionToken,
			Source:          "democrat",
		}
		opts.Credentials = aws.NewCredentialsCache(aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) { return creds, nil },
		))
	} else {
		opts.Credentials = aws.AnonymousCredentials{}
	}
	return s3.New(opts)
}

// Open returns the backend for location: "s3://bucket/prefix" for S3,
// "file://dir" or a plain path for disk. S3 clients are configured with
// S3ConfigFromEnv.
func Open(ctx context.Context, location string) (Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if location == "" {
		return nil, fmt.Errorf("archive: empty location")
	}
	if !strings.Contains(location, "://") {
		return NewDiskStore(location)
	}
	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("archive: parse location: %w", err)
	}
	switch u.Scheme {
	case "file":
		return NewDiskStore(u.Host + u.Path)
	case "s3":
		if u.Host == "" {
			return nil, fmt.Errorf("archive: %s has no bucket", location)
		}
		return NewS3Store(NewS3Client(S3ConfigFromEnv()), u.Host, strings.TrimPrefix(u.Path, "/")), nil
	}
	return nil, fmt.Errorf("archive: unsupported scheme %q", u.Scheme)
}

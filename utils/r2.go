package utils

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"freighterp/config"
)

// R2Uploader stores exported PDFs in a Cloudflare R2 bucket.
type R2Uploader struct {
	client     *s3.Client
	bucket     string
	publicBase string
}

func NewR2Uploader(ctx context.Context, cfg config.R2Config) (*R2Uploader, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("missing required R2 configuration")
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"), // Important for R2
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})
	return &R2Uploader{client: client, bucket: cfg.Bucket, publicBase: cfg.PublicURL}, nil
}

// Upload puts a PDF under key and returns its public URL.
func (u *R2Uploader) Upload(ctx context.Context, fileBytes []byte, key string) (string, error) {
	key = path.Base(key)
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(fileBytes),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to R2: %w", err)
	}
	return u.publicURL(key), nil
}

func (u *R2Uploader) publicURL(key string) string {
	if u.publicBase == "" {
		return fmt.Sprintf("r2://%s/%s", u.bucket, key)
	}
	return fmt.Sprintf("%s/%s", strings.TrimRight(u.publicBase, "/"), url.PathEscape(key))
}

// Owns reports whether fileURL points into this uploader's bucket.
func (u *R2Uploader) Owns(fileURL string) bool {
	if u.publicBase != "" && strings.HasPrefix(fileURL, strings.TrimRight(u.publicBase, "/")+"/") {
		return true
	}
	return strings.HasPrefix(fileURL, "r2://"+u.bucket+"/")
}

// Delete removes the object behind a URL returned by Upload.
func (u *R2Uploader) Delete(ctx context.Context, fileURL string) error {
	p, err := url.Parse(fileURL)
	if err != nil {
		return fmt.Errorf("invalid file URL: %w", err)
	}
	key := path.Base(p.Path)

	_, err = u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete R2 object: %w", err)
	}
	return nil
}

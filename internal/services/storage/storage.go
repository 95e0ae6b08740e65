// Copyright 2025 The devshelf authors
// Licensed under the EUPL-1.2

// Package storage uploads files to an S3-compatible object store.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/devshelf/devshelf/internal/config"
)

// uploadTimeout bounds a single object upload.
const uploadTimeout = 30 * time.Second

// Client is the subset of the S3 API the service needs; swapped for a fake
// in tests.
type Client interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Service stores uploaded files in an object bucket and hands back public
// URLs.
type Service struct {
	client  Client
	bucket  string
	baseURL string
}

// NewService builds the storage service from config. Returns nil when no
// bucket is configured; uploads are then disabled.
func NewService(ctx context.Context, cfg *config.StorageConfig) (*Service, error) {
	if cfg.Bucket == "" {
		return nil, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}

	return &Service{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// NewServiceWithClient builds a service around an existing client, for
// tests.
func NewServiceWithClient(client Client, bucket, baseURL string) *Service {
	return &Service{client: client, bucket: bucket, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// ObjectKey builds a collision-free storage key preserving the original
// file extension.
func ObjectKey(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	d := time.Now()
	return fmt.Sprintf("uploads/%d/%02d/%v%s", d.Year(), d.Month(), uuid.New(), ext)
}

// Upload streams a file to the bucket and returns its public URL.
func (s *Service) Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	key := ObjectKey(filename)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("uploading object: %w", err)
	}
	return s.baseURL + "/" + key, nil
}

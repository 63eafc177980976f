// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage uploads post images to an S3-compatible bucket. It wraps
// the AWS SDK v2 with path-style addressing so MinIO and Ceph work too.
package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// MaxImageSize bounds a single upload.
const MaxImageSize = 5 << 20

// Config selects the bucket and credentials.
type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string // optional CDN base for object URLs
}

// Enabled reports whether enough settings are present to talk to S3.
func (c Config) Enabled() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != "" && c.Bucket != ""
}

// putter is the slice of the S3 API the client uses.
type putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Client stores images in a public bucket.
type Client struct {
	s3        putter
	bucket    string
	endpoint  string
	publicURL string
	now       func() time.Time
}

// New creates a storage client. Returns (nil, nil) when cfg is not
// enabled, allowing the app to start without uploads.
func New(cfg Config) (*Client, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	endpoint := strings.TrimRight(cfg.Endpoint, "/")

	s3Client := s3.New(s3.Options{
		Region:       cfg.Region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	})
	return newClient(s3Client, cfg.Bucket, endpoint, cfg.PublicURL), nil
}

func newClient(api putter, bucket, endpoint, publicURL string) *Client {
	return &Client{
		s3:        api,
		bucket:    bucket,
		endpoint:  endpoint,
		publicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
	}
}

// UploadImage stores body under posts/YYYY/MM/<uuid><ext> with a
// public-read ACL and returns the public URL.
func (c *Client) UploadImage(ctx context.Context, filename, contentType string, body io.Reader, size int64) (string, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("unsupported content type %q", contentType)
	}
	key := c.imageKey(filename, contentType)

	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		ACL:           s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload %s/%s: %w", c.bucket, key, err)
	}
	return c.FileURL(key), nil
}

func (c *Client) imageKey(filename, contentType string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	now := c.now().UTC()
	return fmt.Sprintf("posts/%04d/%02d/%s%s", now.Year(), int(now.Month()), uuid.NewString(), ext)
}

// FileURL returns the public URL for key. Uses the configured public URL
// if set, otherwise builds a path-style URL.
func (c *Client) FileURL(key string) string {
	if c.publicURL != "" {
		return c.publicURL + "/" + key
	}
	return c.endpoint + "/" + c.bucket + "/" + key
}

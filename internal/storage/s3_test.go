// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package storage

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeS3 struct {
	in  *s3.PutObjectInput
	err error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	return &s3.PutObjectOutput{}, f.err
}

func fixedClient(api putter, publicURL string) *Client {
	c := newClient(api, "media", "https://s3.example.com", publicURL)
	c.now = func() time.Time { return time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestNewDisabled(t *testing.T) {
	c, err := New(Config{Endpoint: "https://s3.example.com"})
	if c != nil || err != nil {
		t.Errorf("expected (nil, nil), got (%v, %v)", c, err)
	}
}

func TestUploadImage(t *testing.T) {
	api := &fakeS3{}
	c := fixedClient(api, "")

	url, err := c.UploadImage(context.Background(), "Photo.PNG", "image/png", strings.NewReader("png"), 3)
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}

	key := aws.ToString(api.in.Key)
	if !regexp.MustCompile(`^posts/2026/03/[0-9a-f-]{36}\.png$`).MatchString(key) {
		t.Errorf("key: %q", key)
	}
	if url != "https://s3.example.com/media/"+key {
		t.Errorf("url: %q", url)
	}
	if api.in.ACL != s3types.ObjectCannedACLPublicRead {
		t.Errorf("acl: %q", api.in.ACL)
	}
	if aws.ToString(api.in.ContentType) != "image/png" || aws.ToInt64(api.in.ContentLength) != 3 {
		t.Errorf("metadata: %+v", api.in)
	}
}

func TestUploadImageExtensionFromType(t *testing.T) {
	api := &fakeS3{}
	c := fixedClient(api, "https://cdn.example.com/")

	url, err := c.UploadImage(context.Background(), "blob", "image/png", strings.NewReader("x"), 1)
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}
	if !strings.HasSuffix(aws.ToString(api.in.Key), ".png") {
		t.Errorf("key: %q", aws.ToString(api.in.Key))
	}
	if !strings.HasPrefix(url, "https://cdn.example.com/posts/") {
		t.Errorf("url: %q", url)
	}
}

func TestUploadImageRejectsNonImage(t *testing.T) {
	api := &fakeS3{}
	c := fixedClient(api, "")
	if _, err := c.UploadImage(context.Background(), "a.txt", "text/plain", strings.NewReader("x"), 1); err == nil {
		t.Error("expected error for text/plain")
	}
	if api.in != nil {
		t.Error("PutObject called for rejected upload")
	}
}

func TestUploadImageWrapsError(t *testing.T) {
	boom := errors.New("boom")
	c := fixedClient(&fakeS3{err: boom}, "")
	_, err := c.UploadImage(context.Background(), "a.jpg", "image/jpeg", strings.NewReader("x"), 1)
	if !errors.Is(err, boom) {
		t.Errorf("got %v", err)
	}
}

package storage

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	appconfig "github.com/damsblt/only-you-coaching-app-sub005/internal/config"
)

func TestNewS3StorageRequiresBucket(t *testing.T) {
	if _, err := NewS3Storage(context.Background(), appconfig.S3Config{Region: "eu-north-1"}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestPresignGetWithStaticCredentials(t *testing.T) {
	store, err := NewS3Storage(context.Background(), appconfig.S3Config{
		Region:          "eu-north-1",
		Bucket:          "only-you-coaching",
		AccessKeyID:     "AKIAEXAMPLE",
		SecretAccessKey: "secret",
		Endpoint:        "http://127.0.0.1:9000",
	})
	if err != nil {
		t.Fatalf("create storage failed: %v", err)
	}
	raw, err := store.PresignGet(context.Background(), "Video/intro.mp4", 15*time.Minute)
	if err != nil {
		t.Fatalf("presign failed: %v", err)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse presigned url failed: %v", err)
	}
	if parsed.Host != "127.0.0.1:9000" {
		t.Fatalf("unexpected host: %s", parsed.Host)
	}
	if !strings.HasPrefix(parsed.Path, "/only-you-coaching/Video/intro.mp4") {
		t.Fatalf("path style url expected, got %s", parsed.Path)
	}
	query := parsed.Query()
	if query.Get("X-Amz-Expires") != "900" {
		t.Fatalf("expires want 900 got %s", query.Get("X-Amz-Expires"))
	}
	if query.Get("X-Amz-Signature") == "" {
		t.Fatalf("signature missing in %s", raw)
	}
}

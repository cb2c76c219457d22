package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	appconfig "github.com/damsblt/only-you-coaching-app-sub005/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrNotConfigured 未配置存储桶
var ErrNotConfigured = errors.New("s3 storage not configured")

// S3Storage 基于 S3 的资源签名
type S3Storage struct {
	presign *s3.PresignClient
	bucket  string
	region  string
}

// NewS3Storage 创建 S3 签名客户端
// 配置了 access key 时使用静态凭证，否则走默认凭证链
func NewS3Storage(ctx context.Context, cfg appconfig.S3Config) (*S3Storage, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	region := strings.TrimSpace(cfg.Region)
	if bucket == "" || region == "" {
		return nil, ErrNotConfigured
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if ak := strings.TrimSpace(cfg.AccessKeyID); ak != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(ak, strings.TrimSpace(cfg.SecretAccessKey), ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Storage{
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
		region:  region,
	}, nil
}

// Bucket 存储桶名称
func (s *S3Storage) Bucket() string {
	if s == nil {
		return ""
	}
	return s.bucket
}

// PresignGet 生成带过期时间的 GET 签名地址
func (s *S3Storage) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	if s == nil || s.presign == nil {
		return "", ErrNotConfigured
	}
	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	resp, err := s.presign.PresignGetObject(ctx, input, func(opts *s3.PresignOptions) {
		opts.Expires = expires
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return resp.URL, nil
}

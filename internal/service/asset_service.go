package service

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/config"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/logger"
)

// AssetSigner 对象存储签名能力
type AssetSigner interface {
	Bucket() string
	PresignGet(ctx context.Context, key string, expires time.Duration) (string, error)
}

// AssetService 媒体资源签名地址服务
type AssetService struct {
	cfg    config.S3Config
	signer AssetSigner
	now    func() time.Time
}

// NewAssetService 创建资源服务，signer 为空时所有签名请求返回未配置
func NewAssetService(cfg config.S3Config, signer AssetSigner) *AssetService {
	return &AssetService{cfg: cfg, signer: signer, now: time.Now}
}

// SignedAsset 签名结果
type SignedAsset struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	PublicURL string    `json:"publicUrl,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SignedURL 为允许前缀下的对象生成 GET 签名地址
func (s *AssetService) SignedURL(ctx context.Context, key string, expiresSeconds int) (*SignedAsset, error) {
	if s == nil || s.signer == nil {
		return nil, ErrStorageNotConfigured
	}
	normalized, ok := s.normalizeKey(key)
	if !ok {
		return nil, ErrAssetKeyInvalid
	}
	expires := s.resolveExpires(expiresSeconds)

	signed, err := s.signer.PresignGet(ctx, normalized, expires)
	if err != nil {
		logger.Warnw("asset_presign_failed", "key", normalized, "bucket", s.signer.Bucket(), "error", err)
		return nil, ErrAssetSignFailed
	}
	return &SignedAsset{
		Key:       normalized,
		URL:       signed,
		PublicURL: s.publicURL(normalized),
		ExpiresAt: s.now().Add(expires).UTC(),
	}, nil
}

func (s *AssetService) normalizeKey(key string) (string, bool) {
	normalized := strings.TrimLeft(strings.TrimSpace(key), "/")
	if normalized == "" || strings.Contains(normalized, "..") {
		return "", false
	}
	if len(s.cfg.AllowedPrefixes) == 0 {
		return normalized, true
	}
	for _, prefix := range s.cfg.AllowedPrefixes {
		if prefix != "" && strings.HasPrefix(normalized, prefix) {
			return normalized, true
		}
	}
	return "", false
}

func (s *AssetService) resolveExpires(seconds int) time.Duration {
	if seconds <= 0 {
		seconds = s.cfg.DefaultExpireSeconds
	}
	if seconds <= 0 {
		seconds = 3600
	}
	if s.cfg.MaxExpireSeconds > 0 && seconds > s.cfg.MaxExpireSeconds {
		seconds = s.cfg.MaxExpireSeconds
	}
	return time.Duration(seconds) * time.Second
}

func (s *AssetService) publicURL(key string) string {
	base := strings.TrimRight(strings.TrimSpace(s.cfg.PublicBaseURL), "/")
	if base == "" {
		return ""
	}
	for _, prefix := range s.cfg.PublicPrefixes {
		if prefix != "" && strings.HasPrefix(key, prefix) {
			return base + "/" + (&url.URL{Path: key}).EscapedPath()
		}
	}
	return ""
}

package config

import (
	"net"
	"strings"
)

// Stripe 运行模式
const (
	StripeModeAuto = "auto"
	StripeModeTest = "test"
	StripeModeLive = "live"
)

// StripeConfig Stripe 配置
type StripeConfig struct {
	Mode               string   `mapstructure:"mode"` // auto / test / live
	TestSecretKey      string   `mapstructure:"test_secret_key"`
	LiveSecretKey      string   `mapstructure:"live_secret_key"`
	WebhookSecret      string   `mapstructure:"webhook_secret"`
	Currency           string   `mapstructure:"currency"`
	SuccessURL         string   `mapstructure:"success_url"`
	CancelURL          string   `mapstructure:"cancel_url"`
	TestHostSuffixes   []string `mapstructure:"test_host_suffixes"`
	RateLimitPerSecond float64  `mapstructure:"rate_limit_per_second"`
	RateLimitBurst     int      `mapstructure:"rate_limit_burst"`
	TimeoutSeconds     int      `mapstructure:"timeout_seconds"`
}

// ResolveMode 根据请求域名确定 test / live
// 显式配置优先；auto 模式下测试域名使用 test，其余使用 live
func (c StripeConfig) ResolveMode(host string) string {
	switch strings.ToLower(strings.TrimSpace(c.Mode)) {
	case StripeModeTest:
		return StripeModeTest
	case StripeModeLive:
		return StripeModeLive
	}
	hostname := strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(hostname); err == nil {
		hostname = h
	}
	if hostname == "" {
		return StripeModeTest
	}
	for _, suffix := range c.TestHostSuffixes {
		suffix = strings.ToLower(strings.TrimSpace(suffix))
		if suffix == "" {
			continue
		}
		if hostname == suffix || strings.HasSuffix(hostname, "."+suffix) {
			return StripeModeTest
		}
	}
	return StripeModeLive
}

// SecretKey 返回指定模式的密钥，live 缺失时回退 test
func (c StripeConfig) SecretKey(mode string) string {
	if mode == StripeModeLive && strings.TrimSpace(c.LiveSecretKey) != "" {
		return strings.TrimSpace(c.LiveSecretKey)
	}
	return strings.TrimSpace(c.TestSecretKey)
}

// Configured 是否配置了任意密钥
func (c StripeConfig) Configured() bool {
	return strings.TrimSpace(c.TestSecretKey) != "" || strings.TrimSpace(c.LiveSecretKey) != ""
}

// S3Config 对象存储配置
type S3Config struct {
	Region               string   `mapstructure:"region"`
	Bucket               string   `mapstructure:"bucket"`
	AccessKeyID          string   `mapstructure:"access_key_id"`
	SecretAccessKey      string   `mapstructure:"secret_access_key"`
	Endpoint             string   `mapstructure:"endpoint"`
	PublicBaseURL        string   `mapstructure:"public_base_url"`
	DefaultExpireSeconds int      `mapstructure:"default_expire_seconds"`
	MaxExpireSeconds     int      `mapstructure:"max_expire_seconds"`
	AllowedPrefixes      []string `mapstructure:"allowed_prefixes"`
	PublicPrefixes       []string `mapstructure:"public_prefixes"`
}

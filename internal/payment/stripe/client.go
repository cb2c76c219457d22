package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/config"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/metrics"

	stripego "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"golang.org/x/time/rate"
)

var (
	ErrConfigInvalid    = errors.New("stripe config invalid")
	ErrCouponNotFound   = errors.New("stripe coupon not found")
	ErrSubscriptionGone = errors.New("stripe subscription not found")
	ErrRequestFailed    = errors.New("stripe request failed")
	ErrSignatureInvalid = errors.New("stripe signature invalid")
)

const (
	defaultTimeout      = 30 * time.Second
	defaultCouponLimit  = 100
	defaultRatePerSec   = 20
	defaultRateBurst    = 5
	couponDurationValue = "forever"
)

// Options 单个模式下的客户端参数
type Options struct {
	Mode          string
	SecretKey     string
	WebhookSecret string
	Currency      string
	Timeout       time.Duration
	RatePerSecond float64
	RateBurst     int
	APIBaseURL    string // 仅用于测试环境替换 API 地址
	HTTPClient    *http.Client
}

// Client Stripe 网关（基于 stripe-go）
type Client struct {
	api           *client.API
	mode          string
	currency      string
	webhookSecret string
	limiter       *rate.Limiter
}

// New 创建 Stripe 客户端
func New(opts Options) (*Client, error) {
	secret := strings.TrimSpace(opts.SecretKey)
	if secret == "" {
		return nil, fmt.Errorf("%w: secret key is required", ErrConfigInvalid)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	backendConfig := &stripego.BackendConfig{
		HTTPClient:        httpClient,
		MaxNetworkRetries: stripego.Int64(0),
		LeveledLogger:     &stripego.LeveledLogger{Level: stripego.LevelError},
	}
	if base := strings.TrimSpace(opts.APIBaseURL); base != "" {
		backendConfig.URL = stripego.String(strings.TrimRight(base, "/"))
	}

	api := &client.API{}
	api.Init(secret, stripego.NewBackendsWithConfig(backendConfig))

	ratePerSec := opts.RatePerSecond
	if ratePerSec <= 0 {
		ratePerSec = defaultRatePerSec
	}
	burst := opts.RateBurst
	if burst <= 0 {
		burst = defaultRateBurst
	}
	currency := strings.ToLower(strings.TrimSpace(opts.Currency))
	if currency == "" {
		currency = "chf"
	}

	return &Client{
		api:           api,
		mode:          opts.Mode,
		currency:      currency,
		webhookSecret: strings.TrimSpace(opts.WebhookSecret),
		limiter:       rate.NewLimiter(rate.Limit(ratePerSec), burst),
	}, nil
}

// Mode 返回 test / live
func (c *Client) Mode() string {
	return c.mode
}

// Currency 返回默认币种
func (c *Client) Currency() string {
	return c.currency
}

// wait 控制调用速率，ctx 取消时立即返回
func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return c.limiter.Wait(ctx)
}

func observe(op string, start time.Time, err error) {
	metrics.ObserveStripeCall(op, err, time.Since(start))
}

// wrapError 统一包装 Stripe 错误，资源不存在时归为 ErrCouponNotFound
func wrapError(op string, err error) error {
	return wrapErrorWithMissing(op, err, ErrCouponNotFound)
}

func wrapErrorWithMissing(op string, err error, missing error) error {
	if err == nil {
		return nil
	}
	var stripeErr *stripego.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.HTTPStatusCode == http.StatusNotFound || stripeErr.Code == stripego.ErrorCodeResourceMissing {
			return fmt.Errorf("%s: %w", op, missing)
		}
		msg := strings.TrimSpace(stripeErr.Msg)
		if msg == "" {
			msg = string(stripeErr.Code)
		}
		return fmt.Errorf("%w: %s: %s", ErrRequestFailed, op, msg)
	}
	return fmt.Errorf("%w: %s: %v", ErrRequestFailed, op, err)
}

// Registry 按模式缓存 Stripe 客户端
type Registry struct {
	cfg     config.StripeConfig
	mu      sync.Mutex
	clients map[string]*Client
}

// NewRegistry 创建客户端注册表
func NewRegistry(cfg config.StripeConfig) *Registry {
	return &Registry{cfg: cfg, clients: make(map[string]*Client)}
}

// ModeForHost 根据请求域名确定模式
func (r *Registry) ModeForHost(host string) string {
	return r.cfg.ResolveMode(host)
}

// Client 获取指定模式的客户端
func (r *Registry) Client(mode string) (*Client, error) {
	if r == nil {
		return nil, ErrConfigInvalid
	}
	if mode != config.StripeModeLive {
		mode = config.StripeModeTest
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.clients[mode]; ok {
		return existing, nil
	}
	created, err := New(Options{
		Mode:          mode,
		SecretKey:     r.cfg.SecretKey(mode),
		WebhookSecret: r.cfg.WebhookSecret,
		Currency:      r.cfg.Currency,
		Timeout:       time.Duration(r.cfg.TimeoutSeconds) * time.Second,
		RatePerSecond: r.cfg.RateLimitPerSecond,
		RateBurst:     r.cfg.RateLimitBurst,
	})
	if err != nil {
		return nil, err
	}
	r.clients[mode] = created
	return created, nil
}

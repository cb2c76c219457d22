package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/cache"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/config"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/constants"

	"github.com/mojocn/base64Captcha"
)

const captchaCharset = "23456789abcdefghjkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"

// CaptchaVerifyPayload 验证码校验请求载荷
type CaptchaVerifyPayload struct {
	CaptchaID      string `json:"captcha_id"`
	CaptchaCode    string `json:"captcha_code"`
	TurnstileToken string `json:"turnstile_token"`
}

// CaptchaImageChallenge 图片验证码挑战
type CaptchaImageChallenge struct {
	CaptchaID   string `json:"captcha_id"`
	ImageBase64 string `json:"image_base64"`
}

// CaptchaPublicSetting 前端可见的验证码配置
type CaptchaPublicSetting struct {
	Provider string                 `json:"provider"`
	Enabled  bool                   `json:"enabled"`
	SiteKey  string                 `json:"site_key,omitempty"`
	Image    *CaptchaImageChallenge `json:"image,omitempty"`
}

type turnstileVerifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// CaptchaService 后台登录验证码
// 图片模式在 Redis 可用时使用共享存储，否则退回进程内存储
type CaptchaService struct {
	cfg        config.CaptchaConfig
	httpClient *http.Client

	mu         sync.Mutex
	imageStore base64Captcha.Store
}

// NewCaptchaService 创建验证码服务
func NewCaptchaService(cfg config.CaptchaConfig) *CaptchaService {
	timeout := cfg.Turnstile.TimeoutMS
	if timeout < 500 || timeout > 10000 {
		timeout = 2000
	}
	return &CaptchaService{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(timeout) * time.Millisecond},
	}
}

func (s *CaptchaService) provider() string {
	provider := strings.ToLower(strings.TrimSpace(s.cfg.Provider))
	if provider == "" {
		return constants.CaptchaProviderNone
	}
	return provider
}

// SceneEnabled 判断场景是否需要验证码
func (s *CaptchaService) SceneEnabled(scene string) bool {
	if s == nil || s.provider() == constants.CaptchaProviderNone {
		return false
	}
	switch scene {
	case constants.CaptchaSceneAdminLogin:
		return s.cfg.Scenes.AdminLogin
	default:
		return false
	}
}

// PublicSetting 返回场景配置；图片模式下同时生成一次挑战
func (s *CaptchaService) PublicSetting(scene string) (*CaptchaPublicSetting, error) {
	if s == nil {
		return &CaptchaPublicSetting{Provider: constants.CaptchaProviderNone}, nil
	}
	setting := &CaptchaPublicSetting{Provider: s.provider(), Enabled: s.SceneEnabled(scene)}
	if !setting.Enabled {
		return setting, nil
	}
	switch setting.Provider {
	case constants.CaptchaProviderTurnstile:
		setting.SiteKey = strings.TrimSpace(s.cfg.Turnstile.SiteKey)
	case constants.CaptchaProviderImage:
		challenge, err := s.GenerateImageChallenge()
		if err != nil {
			return nil, err
		}
		setting.Image = challenge
	}
	return setting, nil
}

// GenerateImageChallenge 生成图片验证码
func (s *CaptchaService) GenerateImageChallenge() (*CaptchaImageChallenge, error) {
	if s.provider() != constants.CaptchaProviderImage {
		return nil, ErrCaptchaConfigInvalid
	}
	image := s.cfg.Image
	driver := base64Captcha.NewDriverString(
		positiveOr(image.Height, 80),
		positiveOr(image.Width, 240),
		image.NoiseCount,
		image.ShowLine,
		positiveOr(image.Length, 5),
		captchaCharset,
		nil,
		base64Captcha.DefaultEmbeddedFonts,
		nil,
	)
	captcha := base64Captcha.NewCaptcha(driver, s.store())
	id, b64s, _, err := captcha.Generate()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptchaVerifyFailed, err)
	}
	return &CaptchaImageChallenge{CaptchaID: strings.TrimSpace(id), ImageBase64: strings.TrimSpace(b64s)}, nil
}

// Verify 按场景校验验证码，场景未开启时直接放行
func (s *CaptchaService) Verify(ctx context.Context, scene string, payload CaptchaVerifyPayload, clientIP string) error {
	if !s.SceneEnabled(scene) {
		return nil
	}
	switch s.provider() {
	case constants.CaptchaProviderImage:
		captchaID := strings.TrimSpace(payload.CaptchaID)
		captchaCode := strings.TrimSpace(payload.CaptchaCode)
		if captchaID == "" || captchaCode == "" {
			return ErrCaptchaRequired
		}
		if !s.store().Verify(captchaID, captchaCode, true) {
			return ErrCaptchaInvalid
		}
		return nil
	case constants.CaptchaProviderTurnstile:
		token := strings.TrimSpace(payload.TurnstileToken)
		if token == "" {
			return ErrCaptchaRequired
		}
		return s.verifyTurnstile(ctx, token, strings.TrimSpace(clientIP))
	default:
		return ErrCaptchaConfigInvalid
	}
}

func (s *CaptchaService) verifyTurnstile(ctx context.Context, token, clientIP string) error {
	secret := strings.TrimSpace(s.cfg.Turnstile.SecretKey)
	verifyURL := strings.TrimSpace(s.cfg.Turnstile.VerifyURL)
	if secret == "" || verifyURL == "" {
		return ErrCaptchaConfigInvalid
	}

	form := url.Values{}
	form.Set("secret", secret)
	form.Set("response", token)
	if clientIP != "" {
		form.Set("remoteip", clientIP)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCaptchaVerifyFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCaptchaVerifyFailed, err)
	}
	defer resp.Body.Close()

	var result turnstileVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("%w: %v", ErrCaptchaVerifyFailed, err)
	}
	if !result.Success {
		return ErrCaptchaInvalid
	}
	return nil
}

func (s *CaptchaService) store() base64Captcha.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.imageStore != nil {
		return s.imageStore
	}
	expire := time.Duration(positiveOr(s.cfg.Image.ExpireSeconds, 300)) * time.Second
	if cache.Enabled() {
		s.imageStore = cache.NewCaptchaStore(expire)
	} else {
		s.imageStore = base64Captcha.NewMemoryStore(positiveOr(s.cfg.Image.MaxStore, 10240), expire)
	}
	return s.imageStore
}

func positiveOr(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}

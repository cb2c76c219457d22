package admin

import (
	"context"
	"errors"
	"time"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/cache"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/constants"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/http/response"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/i18n"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/models"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/service"

	"github.com/gin-gonic/gin"
)

const diagnosticsPingTimeout = 2 * time.Second

// CaptchaPayloadRequest 登录时携带的验证码
type CaptchaPayloadRequest struct {
	CaptchaID      string `json:"captcha_id"`
	CaptchaCode    string `json:"captcha_code"`
	TurnstileToken string `json:"turnstile_token"`
}

func (r CaptchaPayloadRequest) toServicePayload() service.CaptchaVerifyPayload {
	return service.CaptchaVerifyPayload{
		CaptchaID:      r.CaptchaID,
		CaptchaCode:    r.CaptchaCode,
		TurnstileToken: r.TurnstileToken,
	}
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username       string                `json:"username" binding:"required"`
	Password       string                `json:"password" binding:"required"`
	CaptchaPayload CaptchaPayloadRequest `json:"captcha_payload"`
}

var captchaErrorRules = []mappedHandlerError{
	{target: service.ErrCaptchaRequired, code: response.CodeBadRequest, key: "error.captcha_required"},
	{target: service.ErrCaptchaInvalid, code: response.CodeBadRequest, key: "error.captcha_invalid"},
	{target: service.ErrCaptchaConfigInvalid, code: response.CodeInternal, key: "error.captcha_config_invalid"},
}

// GetLoginCaptcha 返回登录验证码配置，图片模式附带挑战
func (h *Handler) GetLoginCaptcha(c *gin.Context) {
	setting, err := h.CaptchaService.PublicSetting(constants.CaptchaSceneAdminLogin)
	if err != nil {
		respondError(c, response.CodeInternal, "error.captcha_config_invalid", err)
		return
	}
	response.Success(c, setting)
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token     string                 `json:"token"`
	User      map[string]interface{} `json:"user"`
	ExpiresAt string                 `json:"expires_at"`
}

// AdminLogin 管理员登录（用户名或邮箱）
func (h *Handler) AdminLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	if err := h.CaptchaService.Verify(c.Request.Context(), constants.CaptchaSceneAdminLogin, req.CaptchaPayload.toServicePayload(), c.ClientIP()); err != nil {
		requestLog(c).Warnw("admin_login_captcha_rejected", "account", req.Username, "client_ip", c.ClientIP(), "error", err)
		respondWithMappedError(c, err, captchaErrorRules, response.CodeInternal, "error.captcha_verify_failed")
		return
	}

	admin, token, expiresAt, err := h.AuthService.Login(req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			respondError(c, response.CodeUnauthorized, "error.admin_login_invalid", nil)
		case errors.Is(err, service.ErrAdminEmailForbidden):
			requestLog(c).Warnw("admin_login_email_forbidden", "account", req.Username, "client_ip", c.ClientIP())
			respondError(c, response.CodeForbidden, "error.admin_email_forbidden", nil)
		default:
			respondError(c, response.CodeInternal, "error.login_failed", err)
		}
		return
	}
	requestLog(c).Infow("admin_login_succeeded", "admin_id", admin.ID, "client_ip", c.ClientIP())
	response.Success(c, LoginResponse{
		Token: token,
		User: map[string]interface{}{
			"id":       admin.ID,
			"username": admin.Username,
			"email":    admin.Email,
			"is_super": admin.IsSuper,
		},
		ExpiresAt: expiresAt.Format(time.RFC3339),
	})
}

// GetAdminMe 获取当前管理员
func (h *Handler) GetAdminMe(c *gin.Context) {
	id, ok := getAdminID(c)
	if !ok {
		return
	}
	admin, err := h.AuthService.GetAdmin(id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "error.user_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, admin)
}

// UpdatePasswordRequest 修改密码请求
type UpdatePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// UpdateAdminPassword 修改管理员密码
func (h *Handler) UpdateAdminPassword(c *gin.Context) {
	id, ok := getAdminID(c)
	if !ok {
		return
	}

	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	if err := h.AuthService.ChangePassword(id, req.OldPassword, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrInvalidPassword) {
			respondError(c, response.CodeBadRequest, "error.password_old_invalid", nil)
			return
		}
		var policyErr *service.PasswordPolicyError
		if errors.As(err, &policyErr) {
			msg := i18n.Sprintf(i18n.ResolveLocale(c), policyErr.Key(), policyErr.Args()...)
			respondErrorWithMsg(c, response.CodeBadRequest, msg, nil)
			return
		}
		if errors.Is(err, service.ErrWeakPassword) {
			respondError(c, response.CodeBadRequest, "error.password_weak", nil)
			return
		}
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "error.user_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.save_failed", err)
		return
	}

	response.Success(c, nil)
}

// GetDiagnostics 报告各集成是否可用，不返回任何密钥
func (h *Handler) GetDiagnostics(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), diagnosticsPingTimeout)
	defer cancel()

	dbStatus := "ok"
	if models.DB == nil {
		dbStatus = "not_configured"
	} else if sqlDB, err := models.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		dbStatus = "unreachable"
	}

	redisStatus := "disabled"
	if cache.Enabled() {
		redisStatus = "ok"
		if err := cache.Ping(ctx); err != nil {
			redisStatus = "unreachable"
		}
	}

	cfg := h.Config
	mode := h.stripeMode(c)
	response.Success(c, gin.H{
		"database": dbStatus,
		"redis":    redisStatus,
		"queue":    gin.H{"enabled": h.QueueClient != nil && h.QueueClient.Enabled()},
		"stripe": gin.H{
			"configured":         cfg.Stripe.Configured(),
			"mode":               mode,
			"has_secret_key":     cfg.Stripe.SecretKey(mode) != "",
			"has_webhook_secret": cfg.Stripe.WebhookSecret != "",
			"currency":           cfg.Stripe.Currency,
		},
		"s3": gin.H{
			"configured": h.Storage != nil,
			"bucket":     cfg.S3.Bucket,
			"region":     cfg.S3.Region,
		},
		"plans": len(cfg.Plans),
	})
}

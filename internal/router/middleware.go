package router

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/authz"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/cache"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/config"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/constants"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/http/response"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/i18n"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/logger"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/metrics"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/repository"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDKey           = constants.ContextKeyRequestID
	requestIDHeader        = "X-Request-ID"
	adminIsSuperContextKey = "admin_is_super"
)

var defaultCORSHeaders = []string{
	"Content-Type",
	"Authorization",
	"Accept-Language",
	"X-Request-ID",
	"X-Requested-With",
	"Cache-Control",
}

var defaultCORSMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}

// CORSMiddleware 跨域中间件，前端站点与后台共用
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	methods := strings.Join(orDefault(cfg.AllowedMethods, defaultCORSMethods), ", ")
	headers := strings.Join(orDefault(cfg.AllowedHeaders, defaultCORSHeaders), ", ")
	maxAge := ""
	if cfg.MaxAge > 0 {
		maxAge = strconv.Itoa(cfg.MaxAge)
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		if origin := resolveAllowedOrigin(c.GetHeader("Origin"), origins, cfg.AllowCredentials); origin != "" {
			h.Set("Access-Control-Allow-Origin", origin)
			if origin != "*" {
				h.Add("Vary", "Origin")
			}
		}
		if cfg.AllowCredentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		h.Set("Access-Control-Allow-Methods", methods)
		h.Set("Access-Control-Allow-Headers", headers)
		if maxAge != "" {
			h.Set("Access-Control-Max-Age", maxAge)
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

func orDefault(values, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	return values
}

// resolveAllowedOrigin 携带凭证时通配符回显请求来源
func resolveAllowedOrigin(origin string, allowed []string, allowCredentials bool) string {
	wildcard := false
	matched := false
	for _, item := range allowed {
		if item == "*" {
			wildcard = true
		} else if origin != "" && strings.EqualFold(item, origin) {
			matched = true
		}
	}
	switch {
	case wildcard && allowCredentials && origin != "":
		return origin
	case wildcard:
		return "*"
	case matched:
		return origin
	default:
		return ""
	}
}

// RequestIDMiddleware 请求 ID 中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware 请求日志，带上用户、优惠码与管理员
func LoggerMiddleware(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.L()
	}
	sugar := log.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := append([]interface{}{
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"route", c.FullPath(),
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}, requestDomainFields(c)...)

		switch {
		case len(c.Errors) > 0:
			sugar.Errorw("request", append(fields, "errors", c.Errors.String())...)
		case c.Request.URL.Path == "/metrics":
			sugar.Debugw("request", fields...)
		default:
			sugar.Infow("request", fields...)
		}
	}
}

// requestDomainFields 从路由参数与上下文提取业务字段
func requestDomainFields(c *gin.Context) []interface{} {
	var fields []interface{}
	userID := strings.TrimSpace(c.Param("userId"))
	if userID == "" {
		userID = c.GetString(constants.ContextKeyUserID)
	}
	if userID != "" {
		fields = append(fields, "user_id", userID)
	}
	if code := c.GetString(constants.ContextKeyPromoCode); code != "" {
		fields = append(fields, "promo_code", code)
	}
	if adminID := c.GetUint(constants.ContextKeyAdminID); adminID > 0 {
		fields = append(fields, "admin_id", adminID)
	}
	return fields
}

// MetricsMiddleware 记录 HTTP 请求耗时与状态码
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

func getRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

func abortWith(c *gin.Context, code int, key string) {
	response.Error(c, code, i18n.T(i18n.ResolveLocale(c), key))
	c.Abort()
}

// bearerToken 解析 Authorization 头，失败时返回对应的文案键
func bearerToken(header string) (string, string) {
	if header == "" {
		return "", "error.auth_header_missing"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" || strings.TrimSpace(token) == "" {
		return "", "error.auth_header_invalid"
	}
	return strings.TrimSpace(token), ""
}

// loadAdminAuthState 优先读缓存，未命中时回源数据库并回填
func loadAdminAuthState(ctx context.Context, adminRepo repository.AdminRepository, adminID uint) *cache.AdminAuthState {
	if cached, hit, err := cache.GetAdminAuthState(ctx, adminID); err == nil && hit && cached != nil {
		return cached
	}
	admin, err := adminRepo.GetByID(adminID)
	if err != nil || admin == nil {
		return nil
	}
	state := cache.BuildAdminAuthState(admin)
	_ = cache.SetAdminAuthState(ctx, state)
	return state
}

// JWTAuthMiddleware 管理端 JWT 鉴权，token_version 与 token_invalid_before 用于吊销
func JWTAuthMiddleware(secretKey string, adminRepo repository.AdminRepository) gin.HandlerFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return func(c *gin.Context) {
		if secretKey == "" {
			abortWith(c, response.CodeUnauthorized, "error.jwt_secret_missing")
			return
		}
		if adminRepo == nil {
			abortWith(c, response.CodeUnauthorized, "error.token_invalid")
			return
		}
		tokenString, failKey := bearerToken(c.GetHeader("Authorization"))
		if failKey != "" {
			abortWith(c, response.CodeUnauthorized, failKey)
			return
		}

		claims := &service.JWTClaims{}
		token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(secretKey), nil
		})
		if err != nil || !token.Valid || claims.AdminID == 0 {
			abortWith(c, response.CodeUnauthorized, "error.token_invalid")
			return
		}

		state := loadAdminAuthState(c.Request.Context(), adminRepo, claims.AdminID)
		if state == nil {
			abortWith(c, response.CodeUnauthorized, "error.token_invalid")
			return
		}
		if claims.TokenVersion != state.TokenVersion || !issuedAfter(claims.IssuedAt, state.TokenInvalidBefore) {
			logger.Infow("admin_token_revoked", "admin_id", claims.AdminID, "token_version", claims.TokenVersion)
			abortWith(c, response.CodeUnauthorized, "error.token_revoked")
			return
		}

		c.Set(constants.ContextKeyAdminID, claims.AdminID)
		c.Set(constants.ContextKeyUsername, claims.Username)
		c.Set(adminIsSuperContextKey, state.IsSuper)
		c.Next()
	}
}

// AdminRBACMiddleware 管理端 RBAC 鉴权，超级管理员直接放行
func AdminRBACMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authzService == nil {
			logger.Errorw("admin_rbac_service_unavailable")
			abortWith(c, response.CodeUnauthorized, "error.unauthorized")
			return
		}
		if c.GetBool(adminIsSuperContextKey) {
			c.Next()
			return
		}
		adminID := contextAdminID(c)
		if adminID == 0 {
			abortWith(c, response.CodeUnauthorized, "error.unauthorized")
			return
		}

		resource := c.FullPath()
		if strings.TrimSpace(resource) == "" {
			resource = c.Request.URL.Path
		}
		allowed, err := authzService.EnforceAdmin(adminID, resource, c.Request.Method)
		if err != nil {
			logger.Errorw("admin_rbac_enforce_failed", "admin_id", adminID, "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
			abortWith(c, response.CodeUnauthorized, "error.unauthorized")
			return
		}
		if !allowed {
			logger.Warnw("admin_rbac_permission_denied", "admin_id", adminID, "method", c.Request.Method, "resource", authz.NormalizeObject(resource))
			abortWith(c, response.CodeForbidden, "error.forbidden")
			return
		}
		c.Next()
	}
}

func contextAdminID(c *gin.Context) uint {
	raw, ok := c.Get(constants.ContextKeyAdminID)
	if !ok {
		return 0
	}
	switch value := raw.(type) {
	case uint:
		return value
	case int:
		if value > 0 {
			return uint(value)
		}
	case float64:
		if value > 0 {
			return uint(value)
		}
	}
	return 0
}

// issuedAfter invalidBeforeUnix 为 0 表示未设置
func issuedAfter(issuedAt *jwt.NumericDate, invalidBeforeUnix int64) bool {
	if invalidBeforeUnix <= 0 {
		return true
	}
	if issuedAt == nil {
		return false
	}
	return issuedAt.Time.Unix() >= invalidBeforeUnix
}

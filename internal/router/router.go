package router

import (
	"sort"
	"strings"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/authz"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/cache"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/config"
	adminhandlers "github.com/damsblt/only-you-coaching-app-sub005/internal/http/handlers/admin"
	publichandlers "github.com/damsblt/only-you-coaching-app-sub005/internal/http/handlers/public"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/http/response"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/logger"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/metrics"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisClient := cache.Client()
	adminLoginRule := RateLimitRule{
		Prefix:        cache.BuildKey("rate:admin_login"),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		MessageKey:    "error.login_too_many",
	}
	promoRule := RateLimitRule{
		Prefix:        cache.BuildKey("rate:promo"),
		WindowSeconds: cfg.Security.PromoRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.PromoRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.PromoRateLimit.BlockSeconds,
		MessageKey:    "promo.too_many",
	}
	promoLimiter := RateLimitMiddleware(redisClient, promoRule, KeyByIPAndJSONField("userId"))

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(MetricsMiddleware())
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 优惠码
		apiV1.POST("/promo-codes/validate", promoLimiter, publicHandler.ValidatePromoCode)
		apiV1.POST("/promo-codes/apply", promoLimiter, publicHandler.ApplyPromoCode)

		// 套餐与订阅
		apiV1.GET("/plans", publicHandler.ListPlans)
		apiV1.POST("/checkout/sessions", publicHandler.CreateCheckoutSession)
		apiV1.GET("/subscriptions/:userId", publicHandler.GetUserSubscription)
		apiV1.GET("/subscriptions/:userId/access", publicHandler.CheckAccess)
		apiV1.POST("/subscriptions/cancel", publicHandler.CancelSubscription)
		apiV1.POST("/webhooks/stripe", publicHandler.StripeWebhook)

		// 媒体资源
		apiV1.GET("/assets/signed-url", publicHandler.GetSignedAssetURL)

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.GET("/login/captcha", adminHandler.GetLoginCaptcha)
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIP), adminHandler.AdminLogin)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
			{
				authorized.GET("/me", adminHandler.GetAdminMe)
				authorized.PUT("/password", adminHandler.UpdateAdminPassword)
				authorized.GET("/diagnostics", adminHandler.GetDiagnostics)

				// 优惠码管理
				authorized.GET("/promo-codes", adminHandler.GetAdminPromoCodes)
				authorized.POST("/promo-codes", adminHandler.CreatePromoCode)
				authorized.GET("/promo-codes/:id", adminHandler.GetAdminPromoCode)
				authorized.PATCH("/promo-codes/:id", adminHandler.UpdatePromoCode)
				authorized.DELETE("/promo-codes/:id", adminHandler.DeletePromoCode)

				// Stripe 优惠券同步
				authorized.POST("/sync-stripe-coupons", adminHandler.SyncStripeCoupons)
				authorized.GET("/sync-stripe-coupons", adminHandler.GetStripeCouponStatus)

				// 订阅
				authorized.GET("/subscriptions", adminHandler.GetAdminSubscriptions)

				// 审计日志
				authorized.GET("/audit-logs", adminHandler.ListAdminAuditLogs)

				// 权限管理
				authorized.GET("/authz/me", adminHandler.GetAuthzMe)
				authorized.GET("/authz/roles", adminHandler.ListAuthzRoles)
				authorized.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
					response.Success(ctx, buildAdminPermissionCatalog(r))
				})
				authorized.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
				authorized.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
				authorized.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
				authorized.GET("/authz/admins/:id/roles", adminHandler.GetAuthzAdminRoles)
				authorized.PUT("/authz/admins/:id/roles", adminHandler.SetAuthzAdminRoles)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		if item.Path == "/api/v1/admin/login" || item.Path == "/api/v1/admin/login/captcha" {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	if segments[1] == "authz" {
		return "authz"
	}
	return segments[1]
}

package provider

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/authz"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/cache"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/config"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/logger"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/models"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/payment/stripe"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/queue"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/repository"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/service"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/storage"
)

const storageInitTimeout = 10 * time.Second

// Container 依赖注入容器
type Container struct {
	Config         *config.Config
	QueueClient    *queue.Client
	StripeRegistry *stripe.Registry
	Storage        *storage.S3Storage

	// Repositories
	AdminRepo          repository.AdminRepository
	PromoCodeRepo      repository.PromoCodeRepository
	PromoCodeUsageRepo repository.PromoCodeUsageRepository
	SubscriptionRepo   repository.SubscriptionRepository
	AdminAuditLogRepo  repository.AdminAuditLogRepository

	// Services
	AuthzService          *authz.Service
	AuthService           *service.AuthService
	CaptchaService        *service.CaptchaService
	PromoCodeService      *service.PromoCodeService
	PromoCodeAdminService *service.PromoCodeAdminService
	CouponSyncService     *service.CouponSyncService
	SubscriptionService   *service.SubscriptionService
	AssetService          *service.AssetService
	AdminAuditService     *service.AdminAuditService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 队列未启用时返回禁用状态的客户端，镜像任务改为同步执行
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}
	if cfg.Stripe.Configured() {
		c.StripeRegistry = stripe.NewRegistry(cfg.Stripe)
	} else {
		logger.Warnw("provider_stripe_not_configured")
	}
	c.initStorage()

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initStorage() {
	if strings.TrimSpace(c.Config.S3.Bucket) == "" {
		logger.Warnw("provider_storage_not_configured")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storageInitTimeout)
	defer cancel()
	s3Storage, err := storage.NewS3Storage(ctx, c.Config.S3)
	if err != nil {
		logger.Warnw("provider_init_storage_failed", "bucket", c.Config.S3.Bucket, "error", err)
		return
	}
	c.Storage = s3Storage
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.PromoCodeRepo = repository.NewPromoCodeRepository(db)
	c.PromoCodeUsageRepo = repository.NewPromoCodeUsageRepository(db)
	c.SubscriptionRepo = repository.NewSubscriptionRepository(db)
	c.AdminAuditLogRepo = repository.NewAdminAuditLogRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	var resolver service.StripeResolver
	if c.StripeRegistry != nil {
		resolver = service.NewStripeResolver(c.StripeRegistry)
	}
	cacheTTL := time.Duration(c.Config.Promo.CacheTTLSeconds) * time.Second

	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.AdminAuditService = service.NewAdminAuditService(c.AdminAuditLogRepo)
	c.PromoCodeService = service.NewPromoCodeService(c.PromoCodeRepo, c.PromoCodeUsageRepo, cacheTTL)
	c.CouponSyncService = service.NewCouponSyncService(c.PromoCodeRepo, resolver)
	c.PromoCodeAdminService = service.NewPromoCodeAdminService(
		c.PromoCodeRepo,
		c.PromoCodeUsageRepo,
		c.QueueClient,
		c.CouponSyncService,
		resolver,
		c.Config.Promo.RecentUsageSize,
	)
	c.SubscriptionService = service.NewSubscriptionService(c.Config, c.SubscriptionRepo, c.PromoCodeService, resolver)
	if c.Storage != nil {
		c.AssetService = service.NewAssetService(c.Config.S3, c.Storage)
	} else {
		c.AssetService = service.NewAssetService(c.Config.S3, nil)
	}
}

// Close 释放队列客户端与 Redis 连接
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := cache.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// StripeMode 根据请求域名返回 Stripe 模式
func (c *Container) StripeMode(host string) string {
	if c == nil || c.Config == nil {
		return config.StripeModeTest
	}
	return c.Config.Stripe.ResolveMode(host)
}

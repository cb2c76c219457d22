package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/cache"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/logger"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/models"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/payment/stripe"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/queue"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	promoCodeMaxLength       = 64
	defaultRecentUsageSize   = 10
	promoMirrorInlineTimeout = 30 * time.Second
)

// PromoCodeAdminService 后台优惠码管理服务
type PromoCodeAdminService struct {
	promoRepo   repository.PromoCodeRepository
	usageRepo   repository.PromoCodeUsageRepository
	queueClient *queue.Client
	syncService *CouponSyncService
	resolver    StripeResolver
	recentSize  int
	now         func() time.Time
}

// NewPromoCodeAdminService 创建后台优惠码服务
func NewPromoCodeAdminService(
	promoRepo repository.PromoCodeRepository,
	usageRepo repository.PromoCodeUsageRepository,
	queueClient *queue.Client,
	syncService *CouponSyncService,
	resolver StripeResolver,
	recentSize int,
) *PromoCodeAdminService {
	if recentSize <= 0 {
		recentSize = defaultRecentUsageSize
	}
	return &PromoCodeAdminService{
		promoRepo:   promoRepo,
		usageRepo:   usageRepo,
		queueClient: queueClient,
		syncService: syncService,
		resolver:    resolver,
		recentSize:  recentSize,
		now:         time.Now,
	}
}

// CreatePromoCodeInput 创建参数
type CreatePromoCodeInput struct {
	Code               string
	DiscountType       string
	DiscountValue      models.DiscountValue
	MaxUses            *int
	MaxUsesPerUser     int
	EligiblePlans      []string
	ValidFrom          *time.Time
	ValidUntil         *time.Time
	Description        string
	CreateStripeCoupon bool
	// Mode 镜像 Stripe 时使用的模式（由请求域名决定）
	Mode string
}

// PatchPromoCodeInput 部分更新参数，nil 表示不修改
type PatchPromoCodeInput struct {
	IsActive        *bool
	MaxUses         *int
	ClearMaxUses    bool
	MaxUsesPerUser  *int
	ValidUntil      *time.Time
	ClearValidUntil bool
	Description     *string
	EligiblePlans   *[]string
}

// PromoCodeDetail 详情与统计
type PromoCodeDetail struct {
	PromoCode   *models.PromoCode              `json:"promo_code"`
	Stats       repository.PromoCodeUsageStats `json:"stats"`
	RecentUsage []models.PromoCodeUsage        `json:"recent_usage"`
}

// List 分页获取优惠码
func (s *PromoCodeAdminService) List(filter repository.PromoCodeListFilter) ([]models.PromoCode, int64, error) {
	promos, total, err := s.promoRepo.List(filter)
	if err != nil {
		return nil, 0, ErrPromoCodeFetchFailed
	}
	return promos, total, nil
}

// Create 创建优惠码，可选异步镜像到 Stripe（镜像失败不影响创建）
func (s *PromoCodeAdminService) Create(ctx context.Context, input CreatePromoCodeInput) (*models.PromoCode, error) {
	code := models.NormalizePromoCode(input.Code)
	if code == "" || len(code) > promoCodeMaxLength {
		return nil, ErrPromoCodeInvalid
	}
	discountType := strings.ToLower(strings.TrimSpace(input.DiscountType))
	if err := validateDiscount(discountType, input.DiscountValue); err != nil {
		return nil, err
	}
	if input.MaxUses != nil && *input.MaxUses <= 0 {
		return nil, ErrInvalidDiscountValue
	}
	perUser := input.MaxUsesPerUser
	if perUser <= 0 {
		perUser = 1
	}
	validFrom := s.now()
	if input.ValidFrom != nil {
		validFrom = *input.ValidFrom
	}
	if input.ValidUntil != nil && !input.ValidUntil.After(validFrom) {
		return nil, ErrInvalidValidityWindow
	}

	existing, err := s.promoRepo.GetByCode(code)
	if err != nil {
		return nil, ErrPromoCodeFetchFailed
	}
	if existing != nil {
		return nil, ErrPromoCodeDuplicate
	}

	promo := &models.PromoCode{
		Code:           code,
		DiscountType:   discountType,
		DiscountValue:  input.DiscountValue,
		MaxUses:        input.MaxUses,
		MaxUsesPerUser: perUser,
		EligiblePlans:  models.StringList(input.EligiblePlans).Normalize(),
		ValidFrom:      &validFrom,
		ValidUntil:     input.ValidUntil,
		IsActive:       true,
		Description:    strings.TrimSpace(input.Description),
	}
	if err := s.promoRepo.Create(promo); err != nil {
		if dup, _ := s.promoRepo.GetByCode(code); dup != nil {
			return nil, ErrPromoCodeDuplicate
		}
		return nil, ErrPromoCodeSaveFailed
	}

	if input.CreateStripeCoupon {
		s.scheduleMirror(ctx, promo, input.Mode)
	}
	return promo, nil
}

// scheduleMirror 优先入队，队列不可用时同步执行
func (s *PromoCodeAdminService) scheduleMirror(ctx context.Context, promo *models.PromoCode, mode string) {
	err := s.queueClient.EnqueuePromoCouponMirror(queue.PromoCouponMirrorPayload{
		PromoCodeID: promo.ID,
		Mode:        mode,
	})
	if err == nil {
		logger.Infow("promo_code_mirror_enqueued", "promo_code_id", promo.ID, "code", promo.Code, "mode", mode)
		return
	}
	if !errors.Is(err, queue.ErrQueueDisabled) {
		logger.Warnw("promo_code_mirror_enqueue_failed", "promo_code_id", promo.ID, "error", err)
	}
	if s.syncService == nil {
		return
	}
	mirrorCtx, cancel := context.WithTimeout(ctx, promoMirrorInlineTimeout)
	defer cancel()
	if err := s.syncService.MirrorOne(mirrorCtx, mode, promo.ID); err != nil {
		logger.Warnw("promo_code_mirror_inline_failed", "promo_code_id", promo.ID, "code", promo.Code, "mode", mode, "error", err)
		return
	}
	if refreshed, err := s.promoRepo.GetByID(promo.ID); err == nil && refreshed != nil {
		promo.StripeCouponID = refreshed.StripeCouponID
	}
}

// Get 获取优惠码详情与使用统计
func (s *PromoCodeAdminService) Get(id uint) (*PromoCodeDetail, error) {
	if id == 0 {
		return nil, ErrPromoCodeNotFound
	}
	promo, err := s.promoRepo.GetByID(id)
	if err != nil {
		return nil, ErrPromoCodeFetchFailed
	}
	if promo == nil {
		return nil, ErrPromoCodeNotFound
	}
	stats, err := s.usageRepo.StatsByCode(id)
	if err != nil {
		return nil, ErrPromoCodeFetchFailed
	}
	recent, err := s.usageRepo.ListRecentByCode(id, s.recentSize)
	if err != nil {
		return nil, ErrPromoCodeFetchFailed
	}
	return &PromoCodeDetail{PromoCode: promo, Stats: stats, RecentUsage: recent}, nil
}

// Update 部分更新；Stripe 优惠券创建后不可修改，因此不回写 Stripe
func (s *PromoCodeAdminService) Update(ctx context.Context, id uint, input PatchPromoCodeInput) (*models.PromoCode, error) {
	promo, err := s.promoRepo.GetByID(id)
	if err != nil {
		return nil, ErrPromoCodeFetchFailed
	}
	if promo == nil {
		return nil, ErrPromoCodeNotFound
	}

	if input.IsActive != nil {
		promo.IsActive = *input.IsActive
	}
	switch {
	case input.ClearMaxUses:
		promo.MaxUses = nil
	case input.MaxUses != nil:
		if *input.MaxUses <= 0 {
			return nil, ErrInvalidDiscountValue
		}
		maxUses := *input.MaxUses
		promo.MaxUses = &maxUses
	}
	if input.MaxUsesPerUser != nil {
		if *input.MaxUsesPerUser <= 0 {
			return nil, ErrInvalidDiscountValue
		}
		promo.MaxUsesPerUser = *input.MaxUsesPerUser
	}
	switch {
	case input.ClearValidUntil:
		promo.ValidUntil = nil
	case input.ValidUntil != nil:
		if promo.ValidFrom != nil && !input.ValidUntil.After(*promo.ValidFrom) {
			return nil, ErrInvalidValidityWindow
		}
		validUntil := *input.ValidUntil
		promo.ValidUntil = &validUntil
		if promo.StripeCouponID != nil {
			logger.Infow("promo_code_stripe_coupon_immutable", "promo_code_id", promo.ID, "coupon_id", *promo.StripeCouponID)
		}
	}
	if input.Description != nil {
		promo.Description = strings.TrimSpace(*input.Description)
	}
	if input.EligiblePlans != nil {
		promo.EligiblePlans = models.StringList(*input.EligiblePlans).Normalize()
	}

	if err := s.promoRepo.Update(promo); err != nil {
		return nil, ErrPromoCodeSaveFailed
	}
	if err := cache.DelPromoCode(ctx, promo.Code); err != nil {
		logger.Warnw("promo_code_cache_invalidate_failed", "code", promo.Code, "error", err)
	}
	return promo, nil
}

// Delete 删除优惠码：先尝试删除 Stripe 优惠券（失败仅记录），再删除本地记录与使用记录
func (s *PromoCodeAdminService) Delete(ctx context.Context, id uint, mode string) error {
	promo, err := s.promoRepo.GetByID(id)
	if err != nil {
		return ErrPromoCodeFetchFailed
	}
	if promo == nil {
		return ErrPromoCodeNotFound
	}

	if promo.StripeCouponID != nil && strings.TrimSpace(*promo.StripeCouponID) != "" {
		s.deleteStripeCoupon(ctx, promo, mode)
	}

	err = models.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.usageRepo.WithTx(tx).DeleteByCode(promo.ID); err != nil {
			return err
		}
		return s.promoRepo.WithTx(tx).Delete(promo.ID)
	})
	if err != nil {
		return ErrPromoCodeDeleteFailed
	}
	if err := cache.DelPromoCode(ctx, promo.Code); err != nil {
		logger.Warnw("promo_code_cache_invalidate_failed", "code", promo.Code, "error", err)
	}
	return nil
}

func (s *PromoCodeAdminService) deleteStripeCoupon(ctx context.Context, promo *models.PromoCode, mode string) {
	gateway, err := resolveGateway(s.resolver, mode)
	if err != nil {
		logger.Warnw("promo_code_stripe_delete_skipped", "promo_code_id", promo.ID, "error", err)
		return
	}
	couponID := strings.TrimSpace(*promo.StripeCouponID)
	if err := gateway.DeleteCoupon(ctx, couponID); err != nil && !errors.Is(err, stripe.ErrCouponNotFound) {
		logger.Warnw("promo_code_stripe_delete_failed", "promo_code_id", promo.ID, "coupon_id", couponID, "error", err)
	}
}

func validateDiscount(discountType string, value models.DiscountValue) error {
	switch discountType {
	case models.DiscountTypePercentage:
		if value.Decimal.LessThanOrEqual(decimal.Zero) || value.Decimal.GreaterThan(decimal.NewFromInt(100)) {
			return ErrInvalidDiscountValue
		}
	case models.DiscountTypeFixedAmount:
		if value.Decimal.LessThanOrEqual(decimal.Zero) {
			return ErrInvalidDiscountValue
		}
	default:
		return ErrInvalidDiscountType
	}
	return nil
}

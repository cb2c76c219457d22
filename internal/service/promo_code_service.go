package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/cache"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/logger"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/metrics"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/models"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PromoCodeService 优惠码校验与兑换服务
type PromoCodeService struct {
	promoRepo repository.PromoCodeRepository
	usageRepo repository.PromoCodeUsageRepository
	cacheTTL  time.Duration
	now       func() time.Time
}

// NewPromoCodeService 创建优惠码服务
func NewPromoCodeService(promoRepo repository.PromoCodeRepository, usageRepo repository.PromoCodeUsageRepository, cacheTTL time.Duration) *PromoCodeService {
	return &PromoCodeService{
		promoRepo: promoRepo,
		usageRepo: usageRepo,
		cacheTTL:  cacheTTL,
		now:       time.Now,
	}
}

// ValidatePromoCodeInput 校验参数
type ValidatePromoCodeInput struct {
	Code           string
	PlanID         string
	UserID         string
	OriginalAmount int64
}

// PromoDiscount 折扣计算结果（最小货币单位）
type PromoDiscount struct {
	Amount         int64    `json:"amount"`
	OriginalAmount int64    `json:"originalAmount"`
	FinalAmount    int64    `json:"finalAmount"`
	Percentage     *float64 `json:"percentage"`
}

// PromoValidation 校验通过的结果
type PromoValidation struct {
	PromoCode *models.PromoCode
	Discount  PromoDiscount
}

// Validate 校验优惠码并计算折扣，不产生任何写入
func (s *PromoCodeService) Validate(ctx context.Context, input ValidatePromoCodeInput) (*PromoValidation, error) {
	code := models.NormalizePromoCode(input.Code)
	planID := strings.TrimSpace(input.PlanID)
	userID := strings.TrimSpace(input.UserID)
	if code == "" || planID == "" || userID == "" || input.OriginalAmount <= 0 {
		return nil, ErrMissingParameters
	}

	promo, err := s.loadPromoCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.checkEligibility(promo, planID, userID); err != nil {
		metrics.ObserveValidation(PromoErrorKey(err))
		return nil, err
	}

	discount := CalculateDiscount(promo, input.OriginalAmount)
	metrics.ObserveValidation("accepted")
	return &PromoValidation{PromoCode: promo, Discount: discount}, nil
}

func (s *PromoCodeService) loadPromoCode(ctx context.Context, code string) (*models.PromoCode, error) {
	if cached, hit, err := cache.GetPromoCode(ctx, code); err == nil && hit {
		return cached, nil
	} else if err != nil {
		logger.Warnw("promo_code_cache_read_failed", "code", code, "error", err)
	}
	promo, err := s.promoRepo.GetByCode(code)
	if err != nil {
		return nil, ErrPromoCodeFetchFailed
	}
	if promo == nil {
		return nil, nil
	}
	if !cacheablePromoCode(promo) {
		return promo, nil
	}
	if err := cache.SetPromoCode(ctx, promo, s.cacheTTL); err != nil {
		logger.Warnw("promo_code_cache_write_failed", "code", code, "error", err)
	}
	return promo, nil
}

// cacheablePromoCode 有总次数上限的优惠码不写快照，current_uses 始终读库
func cacheablePromoCode(promo *models.PromoCode) bool {
	return promo != nil && promo.MaxUses == nil
}

// checkEligibility 按固定顺序执行校验，命中即返回
func (s *PromoCodeService) checkEligibility(promo *models.PromoCode, planID, userID string) error {
	if promo == nil {
		return ErrPromoCodeNotFound
	}
	if !promo.IsActive {
		return ErrPromoCodeInactive
	}
	now := s.now()
	if promo.ValidFrom != nil && now.Before(*promo.ValidFrom) {
		return ErrPromoCodeNotYetValid
	}
	if promo.ValidUntil != nil && now.After(*promo.ValidUntil) {
		return ErrPromoCodeExpired
	}
	if promo.MaxUses != nil && promo.CurrentUses >= *promo.MaxUses {
		return ErrPromoCodeLimitReached
	}
	if len(promo.EligiblePlans) > 0 && !promo.EligiblePlans.Contains(planID) {
		return ErrPromoCodePlanNotEligible
	}
	count, err := s.usageRepo.CountByCodeAndUser(promo.ID, userID)
	if err != nil {
		return ErrPromoCodeFetchFailed
	}
	if count >= int64(promo.PerUserLimit()) {
		return ErrPromoCodeAlreadyUsed
	}
	return nil
}

// CalculateDiscount 计算折扣：百分比四舍五入到最小单位，固定金额直接使用，结果不超过原价
func CalculateDiscount(promo *models.PromoCode, originalAmount int64) PromoDiscount {
	result := PromoDiscount{OriginalAmount: originalAmount, FinalAmount: originalAmount}
	if promo == nil || originalAmount <= 0 {
		return result
	}
	original := decimal.NewFromInt(originalAmount)
	var discount decimal.Decimal
	switch promo.DiscountType {
	case models.DiscountTypePercentage:
		discount = original.Mul(promo.DiscountValue.Decimal).Div(decimal.NewFromInt(100)).Round(0)
		percentage, _ := promo.DiscountValue.Decimal.Float64()
		result.Percentage = &percentage
	case models.DiscountTypeFixedAmount:
		discount = promo.DiscountValue.Decimal.Round(0)
	default:
		return result
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(original) {
		discount = original
	}
	result.Amount = discount.IntPart()
	result.FinalAmount = originalAmount - result.Amount
	if result.FinalAmount < 0 {
		result.FinalAmount = 0
	}
	return result
}

// ApplyPromoCodeInput 兑换参数
type ApplyPromoCodeInput struct {
	PromoCodeID    uint
	UserID         string
	SubscriptionID string
	DiscountAmount int64
	OriginalAmount int64
	FinalAmount    int64
}

// Apply 记录一次兑换：锁定优惠码行、校验订阅与单用户上限、条件自增总次数、写入使用记录，全部在同一事务内
// 同一订阅只登记一次，webhook 重投递时返回 ErrPromoCodeAlreadyRedeemed
func (s *PromoCodeService) Apply(ctx context.Context, input ApplyPromoCodeInput) (*models.PromoCodeUsage, error) {
	userID := strings.TrimSpace(input.UserID)
	subscriptionID := strings.TrimSpace(input.SubscriptionID)
	if input.PromoCodeID == 0 || userID == "" || subscriptionID == "" {
		return nil, ErrMissingParameters
	}
	if input.DiscountAmount < 0 || input.OriginalAmount < 0 || input.FinalAmount < 0 {
		return nil, ErrMissingParameters
	}

	var (
		usage *models.PromoCodeUsage
		code  string
	)
	err := models.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		promoRepo := s.promoRepo.WithTx(tx)
		usageRepo := s.usageRepo.WithTx(tx)

		promo, err := promoRepo.GetByIDForUpdate(input.PromoCodeID)
		if err != nil {
			return ErrPromoCodeApplyFailed
		}
		if promo == nil {
			return ErrPromoCodeNotFound
		}
		code = promo.Code

		exists, err := usageRepo.ExistsByCodeAndSubscription(promo.ID, subscriptionID)
		if err != nil {
			return ErrPromoCodeApplyFailed
		}
		if exists {
			return ErrPromoCodeAlreadyRedeemed
		}

		count, err := usageRepo.CountByCodeAndUser(promo.ID, userID)
		if err != nil {
			return ErrPromoCodeApplyFailed
		}
		if count >= int64(promo.PerUserLimit()) {
			return ErrPromoCodeAlreadyRedeemed
		}

		incremented, err := promoRepo.IncrementCurrentUses(promo.ID)
		if err != nil {
			return ErrPromoCodeApplyFailed
		}
		if !incremented {
			return ErrPromoCodeLimitReached
		}

		record := &models.PromoCodeUsage{
			PromoCodeID:    promo.ID,
			UserID:         userID,
			SubscriptionID: subscriptionID,
			DiscountAmount: input.DiscountAmount,
			OriginalAmount: input.OriginalAmount,
			FinalAmount:    input.FinalAmount,
		}
		if err := usageRepo.Create(record); err != nil {
			return ErrPromoCodeApplyFailed
		}
		usage = record
		return nil
	})
	if err != nil {
		metrics.ObserveRedemption(PromoErrorKey(err))
		return nil, err
	}

	if err := cache.DelPromoCode(ctx, code); err != nil {
		logger.Warnw("promo_code_cache_invalidate_failed", "code", code, "error", err)
	}
	metrics.ObserveRedemption("recorded")
	return usage, nil
}

var promoErrorKeys = []struct {
	target error
	key    string
}{
	{ErrMissingParameters, "error.missing_parameters"},
	{ErrPromoCodeNotFound, "promo.not_found"},
	{ErrPromoCodeInactive, "promo.inactive"},
	{ErrPromoCodeNotYetValid, "promo.not_yet_valid"},
	{ErrPromoCodeExpired, "promo.expired"},
	{ErrPromoCodeLimitReached, "promo.limit_reached"},
	{ErrPromoCodePlanNotEligible, "promo.plan_not_eligible"},
	{ErrPromoCodeAlreadyUsed, "promo.already_used"},
	{ErrPromoCodeAlreadyRedeemed, "promo.already_redeemed"},
	{ErrPromoCodeDuplicate, "promo.duplicate"},
	{ErrInvalidDiscountType, "promo.invalid_type"},
	{ErrInvalidDiscountValue, "promo.invalid_value"},
	{ErrInvalidValidityWindow, "promo.invalid_window"},
	{ErrPromoCodeInvalid, "promo.invalid"},
}

// PromoErrorKey 返回业务错误对应的文案 key，未知错误返回空串
func PromoErrorKey(err error) string {
	for _, item := range promoErrorKeys {
		if errors.Is(err, item.target) {
			return item.key
		}
	}
	return ""
}

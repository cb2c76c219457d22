package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/cache"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/logger"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/metrics"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/models"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/payment/stripe"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/repository"
)

const (
	couponSkipReasonExists = "Already exists in Stripe"
	couponStatusListLimit  = 100
)

// CouponSyncService 将本地优惠码镜像为 Stripe 优惠券
type CouponSyncService struct {
	promoRepo repository.PromoCodeRepository
	resolver  StripeResolver
	now       func() time.Time
}

// NewCouponSyncService 创建同步服务
func NewCouponSyncService(promoRepo repository.PromoCodeRepository, resolver StripeResolver) *CouponSyncService {
	return &CouponSyncService{
		promoRepo: promoRepo,
		resolver:  resolver,
		now:       time.Now,
	}
}

// CouponSyncInput 同步参数
type CouponSyncInput struct {
	Mode  string
	Codes []string
	Force bool
}

// CouponSyncedItem 已同步项
type CouponSyncedItem struct {
	Code          string               `json:"code"`
	CouponID      string               `json:"couponId"`
	DiscountType  string               `json:"discountType"`
	DiscountValue models.DiscountValue `json:"discountValue"`
	Recreated     bool                 `json:"recreated,omitempty"`
}

// CouponSkippedItem 跳过项
type CouponSkippedItem struct {
	Code     string `json:"code"`
	CouponID string `json:"couponId"`
	Reason   string `json:"reason"`
}

// CouponSyncError 单个优惠码同步失败
type CouponSyncError struct {
	Code     string `json:"code"`
	CouponID string `json:"couponId"`
	Error    string `json:"error"`
}

// CouponSyncResult 同步结果
type CouponSyncResult struct {
	Message string              `json:"message"`
	Mode    string              `json:"mode"`
	Total   int                 `json:"total"`
	Synced  []CouponSyncedItem  `json:"synced"`
	Skipped []CouponSkippedItem `json:"skipped"`
	Errors  []CouponSyncError   `json:"errors"`
}

// Sync 同步启用中的优惠码；单个失败不影响其余，Stripe 调用不重试
func (s *CouponSyncService) Sync(ctx context.Context, input CouponSyncInput) (*CouponSyncResult, error) {
	gateway, err := resolveGateway(s.resolver, input.Mode)
	if err != nil {
		return nil, err
	}
	promos, err := s.promoRepo.ListActive(normalizeCodes(input.Codes))
	if err != nil {
		return nil, ErrPromoCodeFetchFailed
	}

	mode := gateway.Mode()
	result := &CouponSyncResult{
		Mode:    mode,
		Total:   len(promos),
		Synced:  make([]CouponSyncedItem, 0, len(promos)),
		Skipped: make([]CouponSkippedItem, 0),
		Errors:  make([]CouponSyncError, 0),
	}
	if len(promos) == 0 {
		result.Message = "No promo codes to sync"
		return result, nil
	}

	for i := range promos {
		promo := &promos[i]
		couponID := promo.CouponID()
		item, skipped, err := s.mirror(ctx, gateway, promo, input.Force)
		switch {
		case err != nil:
			logger.Warnw("promo_code_sync_failed", "mode", mode, "code", promo.Code, "coupon_id", couponID, "error", err)
			result.Errors = append(result.Errors, CouponSyncError{Code: promo.Code, CouponID: couponID, Error: err.Error()})
		case skipped:
			result.Skipped = append(result.Skipped, CouponSkippedItem{Code: promo.Code, CouponID: couponID, Reason: couponSkipReasonExists})
		default:
			result.Synced = append(result.Synced, *item)
		}
	}

	metrics.ObserveCouponSync(mode, "synced", len(result.Synced))
	metrics.ObserveCouponSync(mode, "skipped", len(result.Skipped))
	metrics.ObserveCouponSync(mode, "failed", len(result.Errors))
	result.Message = fmt.Sprintf("Sync complete for %s mode", strings.ToUpper(mode))
	logger.Infow("promo_code_sync_done",
		"mode", mode,
		"total", result.Total,
		"synced", len(result.Synced),
		"skipped", len(result.Skipped),
		"failed", len(result.Errors),
	)
	return result, nil
}

// MirrorOne 镜像单个优惠码（创建时触发），已存在则跳过
func (s *CouponSyncService) MirrorOne(ctx context.Context, mode string, promoCodeID uint) error {
	gateway, err := resolveGateway(s.resolver, mode)
	if err != nil {
		return err
	}
	promo, err := s.promoRepo.GetByID(promoCodeID)
	if err != nil {
		return ErrPromoCodeFetchFailed
	}
	if promo == nil {
		return ErrPromoCodeNotFound
	}
	if _, _, err := s.mirror(ctx, gateway, promo, false); err != nil {
		metrics.ObserveCouponSync(gateway.Mode(), "failed", 1)
		return err
	}
	metrics.ObserveCouponSync(gateway.Mode(), "synced", 1)
	return nil
}

func (s *CouponSyncService) mirror(ctx context.Context, gateway StripeGateway, promo *models.PromoCode, force bool) (*CouponSyncedItem, bool, error) {
	couponID := promo.CouponID()
	exists := true
	if _, err := gateway.GetCoupon(ctx, couponID); err != nil {
		if !errors.Is(err, stripe.ErrCouponNotFound) {
			return nil, false, err
		}
		exists = false
	}
	if exists && !force {
		return nil, true, nil
	}
	if exists {
		if err := gateway.DeleteCoupon(ctx, couponID); err != nil && !errors.Is(err, stripe.ErrCouponNotFound) {
			return nil, false, err
		}
	}

	coupon, err := gateway.CreateCoupon(ctx, s.buildCouponSpec(promo, couponID, gateway.Currency()))
	if err != nil {
		return nil, false, err
	}
	if coupon.ID != "" && (promo.StripeCouponID == nil || *promo.StripeCouponID != coupon.ID) {
		if err := s.promoRepo.UpdateStripeCouponID(promo.ID, coupon.ID); err != nil {
			return nil, false, err
		}
		if err := cache.DelPromoCode(ctx, promo.Code); err != nil {
			logger.Warnw("promo_code_cache_invalidate_failed", "code", promo.Code, "error", err)
		}
		id := coupon.ID
		promo.StripeCouponID = &id
	}
	return &CouponSyncedItem{
		Code:          promo.Code,
		CouponID:      coupon.ID,
		DiscountType:  promo.DiscountType,
		DiscountValue: promo.DiscountValue,
		Recreated:     exists,
	}, false, nil
}

func (s *CouponSyncService) buildCouponSpec(promo *models.PromoCode, couponID, currency string) stripe.CouponSpec {
	name := strings.TrimSpace(promo.Description)
	if name == "" {
		name = "Promo " + promo.Code
	}
	spec := stripe.CouponSpec{
		ID:       couponID,
		Name:     name,
		Currency: currency,
		Metadata: map[string]string{"promo_code": promo.Code},
	}
	if promo.DiscountType == models.DiscountTypePercentage {
		percent, _ := promo.DiscountValue.Decimal.Float64()
		spec.PercentOff = &percent
	} else {
		amount := promo.DiscountValue.Decimal.Round(0).IntPart()
		spec.AmountOff = &amount
	}
	if promo.MaxUses != nil && *promo.MaxUses > 0 {
		max := int64(*promo.MaxUses)
		spec.MaxRedemptions = &max
	}
	if promo.ValidUntil != nil && promo.ValidUntil.After(s.now()) {
		redeemBy := *promo.ValidUntil
		spec.RedeemBy = &redeemBy
	}
	return spec
}

// CouponStatusPromo 本地优惠码摘要
type CouponStatusPromo struct {
	Code           string               `json:"code"`
	StripeCouponID *string              `json:"stripe_coupon_id"`
	DiscountType   string               `json:"discount_type"`
	DiscountValue  models.DiscountValue `json:"discount_value"`
	IsActive       bool                 `json:"is_active"`
}

// CouponSyncStatus 同步状态对比
type CouponSyncStatus struct {
	Mode            string              `json:"mode"`
	StripeCoupons   []stripe.Coupon     `json:"stripeCoupons"`
	DBPromoCodes    []CouponStatusPromo `json:"dbPromoCodes"`
	MissingInStripe []CouponStatusPromo `json:"missingInStripe"`
	Unlinked        []CouponStatusPromo `json:"unlinked"`
}

// Status 对比 Stripe 优惠券与本地启用中的优惠码
func (s *CouponSyncService) Status(ctx context.Context, mode string) (*CouponSyncStatus, error) {
	gateway, err := resolveGateway(s.resolver, mode)
	if err != nil {
		return nil, err
	}
	coupons, err := gateway.ListCoupons(ctx, couponStatusListLimit)
	if err != nil {
		return nil, err
	}
	promos, err := s.promoRepo.ListActive(nil)
	if err != nil {
		return nil, ErrPromoCodeFetchFailed
	}

	remote := make(map[string]struct{}, len(coupons))
	for _, coupon := range coupons {
		remote[coupon.ID] = struct{}{}
	}
	status := &CouponSyncStatus{
		Mode:            gateway.Mode(),
		StripeCoupons:   coupons,
		DBPromoCodes:    make([]CouponStatusPromo, 0, len(promos)),
		MissingInStripe: make([]CouponStatusPromo, 0),
		Unlinked:        make([]CouponStatusPromo, 0),
	}
	for _, promo := range promos {
		item := CouponStatusPromo{
			Code:           promo.Code,
			StripeCouponID: promo.StripeCouponID,
			DiscountType:   promo.DiscountType,
			DiscountValue:  promo.DiscountValue,
			IsActive:       promo.IsActive,
		}
		status.DBPromoCodes = append(status.DBPromoCodes, item)
		if promo.StripeCouponID == nil || strings.TrimSpace(*promo.StripeCouponID) == "" {
			status.Unlinked = append(status.Unlinked, item)
			continue
		}
		if _, ok := remote[*promo.StripeCouponID]; !ok {
			status.MissingInStripe = append(status.MissingInStripe, item)
		}
	}
	return status, nil
}

func normalizeCodes(codes []string) []string {
	if len(codes) == 0 {
		return nil
	}
	result := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		normalized := models.NormalizePromoCode(code)
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		result = append(result, normalized)
	}
	return result
}

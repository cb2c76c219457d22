package cache

import (
	"context"
	"time"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/models"
)

func promoCodeKey(code string) string {
	return "promo:code:" + models.NormalizePromoCode(code)
}

// GetPromoCode 读取优惠码快照
// 快照仅供校验接口使用，兑换流程始终以数据库为准
func GetPromoCode(ctx context.Context, code string) (*models.PromoCode, bool, error) {
	if models.NormalizePromoCode(code) == "" {
		return nil, false, nil
	}
	var promo models.PromoCode
	hit, err := GetJSON(ctx, promoCodeKey(code), &promo)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &promo, true, nil
}

// SetPromoCode 写入优惠码快照
func SetPromoCode(ctx context.Context, promo *models.PromoCode, ttl time.Duration) error {
	if promo == nil || promo.Code == "" || ttl <= 0 {
		return nil
	}
	return SetJSON(ctx, promoCodeKey(promo.Code), promo, ttl)
}

// DelPromoCode 删除优惠码快照
func DelPromoCode(ctx context.Context, code string) error {
	if models.NormalizePromoCode(code) == "" {
		return nil
	}
	return Del(ctx, promoCodeKey(code))
}

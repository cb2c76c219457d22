package models

import (
	"strings"
	"time"
)

// 折扣类型
const (
	DiscountTypePercentage  = "percentage"
	DiscountTypeFixedAmount = "fixed_amount"
)

// PromoCode 优惠码表
type PromoCode struct {
	ID             uint          `gorm:"primarykey" json:"id"`                                        // 主键
	Code           string        `gorm:"uniqueIndex;not null;size:64" json:"code"`                    // 优惠码（大写）
	DiscountType   string        `gorm:"not null;size:20" json:"discount_type"`                       // percentage / fixed_amount
	DiscountValue  DiscountValue `gorm:"type:decimal(20,2);not null;default:0" json:"discount_value"` // 折扣值
	MaxUses        *int          `json:"max_uses"`                                                    // 总次数上限（空表示不限）
	MaxUsesPerUser int           `gorm:"not null;default:1" json:"max_uses_per_user"`                 // 单用户次数上限
	CurrentUses    int           `gorm:"not null;default:0" json:"current_uses"`                      // 已使用次数
	EligiblePlans  StringList    `gorm:"type:text" json:"eligible_plans"`                             // 适用套餐（空表示全部）
	ValidFrom      *time.Time    `gorm:"index" json:"valid_from"`                                     // 生效时间
	ValidUntil     *time.Time    `gorm:"index" json:"valid_until"`                                    // 失效时间
	IsActive       bool          `gorm:"not null;default:true;index" json:"is_active"`                // 是否启用
	StripeCouponID *string       `gorm:"size:128" json:"stripe_coupon_id"`                            // 对应的 Stripe 优惠券 ID
	Description    string        `gorm:"type:text" json:"description"`                                // 描述
	CreatedAt      time.Time     `gorm:"index" json:"created_at"`                                     // 创建时间
	UpdatedAt      time.Time     `json:"updated_at"`                                                  // 更新时间
}

// TableName 指定表名
func (PromoCode) TableName() string {
	return "promo_codes"
}

// NormalizePromoCode 统一优惠码格式
func NormalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// PerUserLimit 返回单用户上限，未配置时为 1
func (p *PromoCode) PerUserLimit() int {
	if p == nil || p.MaxUsesPerUser <= 0 {
		return 1
	}
	return p.MaxUsesPerUser
}

// CouponID 返回 Stripe 优惠券 ID，未关联时使用优惠码本身
func (p *PromoCode) CouponID() string {
	if p == nil {
		return ""
	}
	if p.StripeCouponID != nil && strings.TrimSpace(*p.StripeCouponID) != "" {
		return strings.TrimSpace(*p.StripeCouponID)
	}
	return p.Code
}

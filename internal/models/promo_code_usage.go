package models

import "time"

// PromoCodeUsage 优惠码使用记录表
type PromoCodeUsage struct {
	ID             uint       `gorm:"primarykey" json:"id"`                                            // 主键
	PromoCodeID    uint       `gorm:"not null;index:idx_promo_usage_code_user" json:"promo_code_id"`   // 优惠码 ID
	UserID         string     `gorm:"not null;size:64;index:idx_promo_usage_code_user" json:"user_id"` // 用户 ID
	SubscriptionID string     `gorm:"size:128;index" json:"subscription_id"`                           // 订阅 ID
	DiscountAmount int64      `gorm:"not null;default:0" json:"discount_amount"`                       // 优惠金额（最小货币单位）
	OriginalAmount int64      `gorm:"not null;default:0" json:"original_amount"`                       // 原价
	FinalAmount    int64      `gorm:"not null;default:0" json:"final_amount"`                          // 实付
	PromoCode      *PromoCode `gorm:"foreignKey:PromoCodeID" json:"promo_code,omitempty"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"` // 创建时间
	UpdatedAt      time.Time  `json:"updated_at"`              // 更新时间
}

// TableName 指定表名
func (PromoCodeUsage) TableName() string {
	return "promo_code_usage"
}

package repository

import "time"

// PromoCodeListFilter 优惠码列表筛选
type PromoCodeListFilter struct {
	Page     int
	PageSize int
	Code     string
	Search   string
	IsActive *bool
}

// SubscriptionListFilter 订阅列表筛选
type SubscriptionListFilter struct {
	Page        int
	PageSize    int
	UserID      string
	PlanID      string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// PromoCodeUsageStats 优惠码使用统计
type PromoCodeUsageStats struct {
	TotalUses          int64 `json:"total_uses"`
	TotalDiscountGiven int64 `json:"total_discount_given"`
	UniqueUsers        int64 `json:"unique_users"`
}

// AdminAuditLogListFilter 审计日志筛选
type AdminAuditLogListFilter struct {
	Page            int
	PageSize        int
	OperatorAdminID uint
	Action          string
	Object          string
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
}

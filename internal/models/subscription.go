package models

import "time"

// 订阅状态
const (
	SubscriptionStatusActive   = "ACTIVE"
	SubscriptionStatusPastDue  = "PAST_DUE"
	SubscriptionStatusCanceled = "CANCELED"
	SubscriptionStatusUnpaid   = "UNPAID"
	SubscriptionStatusTrialing = "TRIALING"
)

// Subscription 订阅表（状态以 Stripe 为准）
type Subscription struct {
	ID                   uint       `gorm:"primarykey" json:"id"`
	UserID               string     `gorm:"not null;size:64;index" json:"user_id"`
	StripeCustomerID     string     `gorm:"size:128;index" json:"stripe_customer_id"`
	StripeSubscriptionID string     `gorm:"size:128;uniqueIndex" json:"stripe_subscription_id"`
	StripePriceID        string     `gorm:"size:128" json:"stripe_price_id"`
	PlanID               string     `gorm:"size:64;index" json:"plan_id"`
	Status               string     `gorm:"size:32;index" json:"status"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end"`
	CommitmentEndDate    *time.Time `json:"commitment_end_date"`
	CancelAt             *time.Time `json:"cancel_at"`
	CancelAtPeriodEnd    bool       `gorm:"not null;default:false" json:"cancel_at_period_end"`
	CreatedAt            time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// TableName 指定表名
func (Subscription) TableName() string {
	return "subscriptions"
}

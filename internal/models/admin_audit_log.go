package models

import "time"

// 审计动作
const (
	AuditActionPromoCreate = "promo_code.create"
	AuditActionPromoUpdate = "promo_code.update"
	AuditActionPromoDelete = "promo_code.delete"
	AuditActionCouponSync  = "stripe_coupon.sync"
	AuditActionRoleGrant   = "authz.role_grant"
	AuditActionRoleRevoke  = "authz.role_revoke"
	AuditActionAdminRoles  = "authz.admin_roles"
)

// AdminAuditLog 后台操作审计日志
// 记录优惠码管理、Stripe 同步与权限变更，支持按管理员与时间范围检索
type AdminAuditLog struct {
	ID               uint      `gorm:"primarykey" json:"id"`
	OperatorAdminID  uint      `gorm:"index;not null" json:"operator_admin_id"`
	OperatorUsername string    `gorm:"type:varchar(100);index;not null;default:''" json:"operator_username"`
	Action           string    `gorm:"type:varchar(100);index;not null" json:"action"`
	Object           string    `gorm:"type:varchar(255);index;not null;default:''" json:"object"`
	Method           string    `gorm:"type:varchar(20);not null;default:''" json:"method"`
	RequestID        string    `gorm:"type:varchar(64);index;not null;default:''" json:"request_id"`
	DetailJSON       JSON      `gorm:"type:text" json:"detail"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (AdminAuditLog) TableName() string {
	return "admin_audit_logs"
}

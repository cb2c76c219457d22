package constants

// 队列与任务
const (
	QueueDefault          = "default"
	TaskPromoCouponMirror = "promo:coupon_mirror"
	TaskPromoCouponSync   = "promo:coupon_sync"
)

// 后台预置角色
const (
	RoleReadonlyAuditor = "readonly_auditor"
	RolePromoManager    = "promo_manager"
	RoleBilling         = "billing"
)

// Checkout 会话 metadata 键
const (
	MetadataUserID         = "user_id"
	MetadataPlanID         = "plan_id"
	MetadataPromoCodeID    = "promo_code_id"
	MetadataPromoCode      = "promo_code"
	MetadataDiscountAmount = "discount_amount"
	MetadataOriginalAmount = "original_amount"
	MetadataFinalAmount    = "final_amount"
)

// 上下文键
const (
	ContextKeyRequestID = "request_id"
	ContextKeyAdminID   = "admin_id"
	ContextKeyUsername  = "username"
	ContextKeyUserID    = "user_id"
	ContextKeyPromoCode = "promo_code"
)

// 验证码
const (
	CaptchaProviderNone      = "none"
	CaptchaProviderImage     = "image"
	CaptchaProviderTurnstile = "turnstile"

	CaptchaSceneAdminLogin = "admin_login"
)

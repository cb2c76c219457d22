package service

import "errors"

// 通用错误
var (
	ErrNotFound            = errors.New("resource not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidPassword     = errors.New("invalid password")
	ErrWeakPassword        = errors.New("weak password")
	ErrAdminEmailForbidden = errors.New("admin email not allowed")
	ErrMissingParameters   = errors.New("missing required parameters")
	ErrQueueUnavailable    = errors.New("queue unavailable")
)

// 验证码错误
var (
	ErrCaptchaRequired      = errors.New("captcha required")
	ErrCaptchaInvalid       = errors.New("captcha invalid")
	ErrCaptchaConfigInvalid = errors.New("captcha config invalid")
	ErrCaptchaVerifyFailed  = errors.New("captcha verify failed")
)

// 优惠码校验错误（按校验顺序）
var (
	ErrPromoCodeNotFound        = errors.New("promo code not found")
	ErrPromoCodeInactive        = errors.New("promo code inactive")
	ErrPromoCodeNotYetValid     = errors.New("promo code not yet valid")
	ErrPromoCodeExpired         = errors.New("promo code expired")
	ErrPromoCodeLimitReached    = errors.New("promo code usage limit reached")
	ErrPromoCodePlanNotEligible = errors.New("promo code not valid for plan")
	ErrPromoCodeAlreadyUsed     = errors.New("promo code already used by user")
)

// 优惠码兑换与管理错误
var (
	ErrPromoCodeAlreadyRedeemed = errors.New("promo code already redeemed")
	ErrPromoCodeDuplicate       = errors.New("promo code already exists")
	ErrPromoCodeInvalid         = errors.New("promo code invalid")
	ErrInvalidDiscountType      = errors.New("invalid discount type")
	ErrInvalidDiscountValue     = errors.New("invalid discount value")
	ErrInvalidValidityWindow    = errors.New("invalid validity window")
	ErrPromoCodeSaveFailed      = errors.New("promo code save failed")
	ErrPromoCodeDeleteFailed    = errors.New("promo code delete failed")
	ErrPromoCodeFetchFailed     = errors.New("promo code fetch failed")
	ErrPromoCodeApplyFailed     = errors.New("promo code apply failed")
)

// 订阅与支付错误
var (
	ErrStripeNotConfigured      = errors.New("stripe not configured")
	ErrPlanNotFound             = errors.New("plan not found")
	ErrPlanPriceMissing         = errors.New("plan stripe price missing")
	ErrCheckoutCreateFailed     = errors.New("checkout session create failed")
	ErrWebhookSignature         = errors.New("webhook signature invalid")
	ErrWebhookProcessFailed     = errors.New("webhook process failed")
	ErrSubscriptionNotFound     = errors.New("subscription not found")
	ErrSubscriptionFetchFailed  = errors.New("subscription fetch failed")
	ErrSubscriptionCancelFailed = errors.New("subscription cancel failed")
	ErrSubscriptionNotActive    = errors.New("subscription not active")
)

// 资源签名错误
var (
	ErrStorageNotConfigured = errors.New("storage not configured")
	ErrAssetKeyInvalid      = errors.New("asset key invalid")
	ErrAssetSignFailed      = errors.New("asset sign failed")
)

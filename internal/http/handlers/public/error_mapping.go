package public

import (
	"errors"
	"net/http"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/http/response"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/i18n"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

// promoRejectionRules 优惠码拒绝原因，顺序与校验顺序一致
var promoRejectionRules = []mappedHandlerError{
	{target: service.ErrMissingParameters, code: response.CodeBadRequest, key: "error.missing_parameters"},
	{target: service.ErrPromoCodeNotFound, code: response.CodeNotFound, key: "promo.not_found"},
	{target: service.ErrPromoCodeInactive, code: response.CodeBadRequest, key: "promo.inactive"},
	{target: service.ErrPromoCodeNotYetValid, code: response.CodeBadRequest, key: "promo.not_yet_valid"},
	{target: service.ErrPromoCodeExpired, code: response.CodeBadRequest, key: "promo.expired"},
	{target: service.ErrPromoCodeLimitReached, code: response.CodeBadRequest, key: "promo.limit_reached"},
	{target: service.ErrPromoCodePlanNotEligible, code: response.CodeBadRequest, key: "promo.plan_not_eligible"},
	{target: service.ErrPromoCodeAlreadyUsed, code: response.CodeBadRequest, key: "promo.already_used"},
}

var promoApplyErrorRules = concatMappedHandlerErrors(promoRejectionRules, []mappedHandlerError{
	{target: service.ErrPromoCodeAlreadyRedeemed, code: response.CodeBadRequest, key: "promo.already_redeemed"},
})

var checkoutErrorRules = concatMappedHandlerErrors(promoRejectionRules, []mappedHandlerError{
	{target: service.ErrStripeNotConfigured, code: response.CodeServiceUnavailable, key: "error.stripe_not_configured"},
	{target: service.ErrPlanNotFound, code: response.CodeNotFound, key: "plan.not_found"},
	{target: service.ErrPlanPriceMissing, code: response.CodeBadRequest, key: "plan.price_missing"},
})

var webhookErrorRules = []mappedHandlerError{
	{target: service.ErrStripeNotConfigured, code: response.CodeServiceUnavailable, key: "error.stripe_not_configured"},
	{target: service.ErrWebhookSignature, code: response.CodeBadRequest, key: "webhook.signature_invalid"},
}

var subscriptionErrorRules = []mappedHandlerError{
	{target: service.ErrMissingParameters, code: response.CodeBadRequest, key: "error.missing_parameters"},
	{target: service.ErrSubscriptionNotFound, code: response.CodeNotFound, key: "subscription.not_found"},
}

var cancelSubscriptionErrorRules = concatMappedHandlerErrors(subscriptionErrorRules, []mappedHandlerError{
	{target: service.ErrSubscriptionNotActive, code: response.CodeBadRequest, key: "subscription.not_active"},
	{target: service.ErrStripeNotConfigured, code: response.CodeServiceUnavailable, key: "error.stripe_not_configured"},
})

var assetErrorRules = []mappedHandlerError{
	{target: service.ErrAssetKeyInvalid, code: response.CodeBadRequest, key: "asset.key_invalid"},
	{target: service.ErrStorageNotConfigured, code: response.CodeServiceUnavailable, key: "error.storage_not_configured"},
}

// respondPromoRejection 优惠码接口使用扁平响应体：{<flag>:false, error:"..."}
func respondPromoRejection(c *gin.Context, flag string, err error, rules []mappedHandlerError, fallbackKey string) {
	locale := i18n.ResolveLocale(c)
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			response.Raw(c, response.HTTPStatus(rule.code), gin.H{flag: false, "error": i18n.T(locale, rule.key)})
			return
		}
	}
	requestLog(c).Errorw("promo_code_request_failed", "flag", flag, "error", err)
	response.Raw(c, http.StatusInternalServerError, gin.H{flag: false, "error": i18n.T(locale, fallbackKey)})
}

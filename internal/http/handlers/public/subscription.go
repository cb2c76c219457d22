package public

import (
	"strings"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/http/response"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/i18n"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/service"

	"github.com/gin-gonic/gin"
)

// CheckoutSessionRequest 创建结账会话请求
type CheckoutSessionRequest struct {
	PlanID    string `json:"planId" binding:"required"`
	UserID    string `json:"userId" binding:"required"`
	Email     string `json:"email"`
	PromoCode string `json:"promoCode"`
}

// ListPlans 获取套餐目录
func (h *Handler) ListPlans(c *gin.Context) {
	response.Success(c, h.SubscriptionService.Plans())
}

// CreateCheckoutSession 创建 Stripe 订阅结账会话
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	var req CheckoutSessionRequest
	err := c.ShouldBindJSON(&req)
	tagRequest(c, req.UserID, req.PromoCode)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.missing_parameters", nil)
		return
	}

	result, err := h.SubscriptionService.CreateCheckout(c.Request.Context(), service.CheckoutRequest{
		PlanID:    req.PlanID,
		UserID:    req.UserID,
		Email:     req.Email,
		PromoCode: req.PromoCode,
		Mode:      h.stripeMode(c),
	})
	if err != nil {
		respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "checkout.create_failed")
		return
	}
	response.Success(c, result)
}

// GetUserSubscription 获取用户最近的订阅
func (h *Handler) GetUserSubscription(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	subscription, err := h.SubscriptionService.GetLatestByUser(userID)
	if err != nil {
		respondWithMappedError(c, err, subscriptionErrorRules, response.CodeInternal, "subscription.fetch_failed")
		return
	}
	response.Success(c, subscription)
}

// CancelSubscriptionRequest 取消订阅请求
type CancelSubscriptionRequest struct {
	UserID         string `json:"userId" binding:"required"`
	SubscriptionID string `json:"subscriptionId" binding:"required"`
}

type cancelSubscriptionResponse struct {
	*service.CancelSubscriptionResult
	Message string `json:"message"`
}

// CancelSubscription 取消订阅，承诺期内预约到期取消
func (h *Handler) CancelSubscription(c *gin.Context) {
	var req CancelSubscriptionRequest
	err := c.ShouldBindJSON(&req)
	tagRequest(c, req.UserID, "")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.missing_parameters", nil)
		return
	}
	result, err := h.SubscriptionService.CancelSubscription(c.Request.Context(), service.CancelSubscriptionRequest{
		UserID:               req.UserID,
		StripeSubscriptionID: req.SubscriptionID,
		Mode:                 h.stripeMode(c),
	})
	if err != nil {
		respondWithMappedError(c, err, cancelSubscriptionErrorRules, response.CodeInternal, "subscription.cancel_failed")
		return
	}

	locale := i18n.ResolveLocale(c)
	message := i18n.T(locale, "subscription.canceled")
	if result.IsCommitmentPeriod && result.CancelAt != nil {
		message = i18n.Sprintf(locale, "subscription.cancel_scheduled", result.CommitmentMonths, result.CancelAt.Format("02/01/2006"))
	}
	response.Success(c, cancelSubscriptionResponse{CancelSubscriptionResult: result, Message: message})
}

// CheckAccess 查询用户可用的套餐功能
func (h *Handler) CheckAccess(c *gin.Context) {
	result, err := h.SubscriptionService.CheckAccess(c.Param("userId"))
	if err != nil {
		respondWithMappedError(c, err, subscriptionErrorRules, response.CodeInternal, "subscription.fetch_failed")
		return
	}
	response.Success(c, result)
}

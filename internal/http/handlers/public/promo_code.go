package public

import (
	"net/http"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/models"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/service"

	"github.com/gin-gonic/gin"
)

// ValidatePromoCodeRequest 校验优惠码请求
type ValidatePromoCodeRequest struct {
	Code           string `json:"code"`
	PlanID         string `json:"planId"`
	UserID         string `json:"userId"`
	OriginalAmount int64  `json:"originalAmount"`
}

// ApplyPromoCodeRequest 兑换优惠码请求
type ApplyPromoCodeRequest struct {
	PromoCodeID    uint   `json:"promoCodeId"`
	UserID         string `json:"userId"`
	SubscriptionID string `json:"subscriptionId"`
	DiscountAmount *int64 `json:"discountAmount"`
	OriginalAmount int64  `json:"originalAmount"`
	FinalAmount    int64  `json:"finalAmount"`
}

// PromoCodeView 校验通过时返回的优惠码摘要
type PromoCodeView struct {
	ID             uint                 `json:"id"`
	Code           string               `json:"code"`
	DiscountType   string               `json:"discountType"`
	DiscountValue  models.DiscountValue `json:"discountValue"`
	StripeCouponID *string              `json:"stripeCouponId"`
}

// ValidatePromoCode 校验优惠码并返回折扣预览
func (h *Handler) ValidatePromoCode(c *gin.Context) {
	var req ValidatePromoCodeRequest
	err := c.ShouldBindJSON(&req)
	tagRequest(c, req.UserID, req.Code)
	if err != nil {
		respondPromoRejection(c, "valid", service.ErrMissingParameters, promoRejectionRules, "promo.validate_failed")
		return
	}

	result, err := h.PromoCodeService.Validate(c.Request.Context(), service.ValidatePromoCodeInput{
		Code:           req.Code,
		PlanID:         req.PlanID,
		UserID:         req.UserID,
		OriginalAmount: req.OriginalAmount,
	})
	if err != nil {
		respondPromoRejection(c, "valid", err, promoRejectionRules, "promo.validate_failed")
		return
	}

	promo := result.PromoCode
	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"promoCode": PromoCodeView{
			ID:             promo.ID,
			Code:           promo.Code,
			DiscountType:   promo.DiscountType,
			DiscountValue:  promo.DiscountValue,
			StripeCouponID: promo.StripeCouponID,
		},
		"discount": result.Discount,
	})
}

// ApplyPromoCode 记录一次优惠码使用
func (h *Handler) ApplyPromoCode(c *gin.Context) {
	var req ApplyPromoCodeRequest
	err := c.ShouldBindJSON(&req)
	tagRequest(c, req.UserID, promoCodeIDTag(req.PromoCodeID))
	if err != nil || req.DiscountAmount == nil {
		respondPromoRejection(c, "success", service.ErrMissingParameters, promoApplyErrorRules, "promo.apply_failed")
		return
	}

	usage, err := h.PromoCodeService.Apply(c.Request.Context(), service.ApplyPromoCodeInput{
		PromoCodeID:    req.PromoCodeID,
		UserID:         req.UserID,
		SubscriptionID: req.SubscriptionID,
		DiscountAmount: *req.DiscountAmount,
		OriginalAmount: req.OriginalAmount,
		FinalAmount:    req.FinalAmount,
	})
	if err != nil {
		respondPromoRejection(c, "success", err, promoApplyErrorRules, "promo.apply_failed")
		return
	}

	requestLog(c).Infow("promo_code_applied",
		"promo_code_id", usage.PromoCodeID,
		"user_id", usage.UserID,
		"subscription_id", usage.SubscriptionID,
	)
	c.JSON(http.StatusOK, gin.H{"success": true, "usage": usage})
}

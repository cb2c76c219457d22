package admin

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/http/response"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/models"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/repository"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/service"

	"github.com/gin-gonic/gin"
)

var promoAdminErrorRules = []mappedHandlerError{
	{target: service.ErrPromoCodeNotFound, code: response.CodeNotFound, key: "promo.not_found"},
	{target: service.ErrPromoCodeInvalid, code: response.CodeBadRequest, key: "promo.invalid"},
	{target: service.ErrPromoCodeDuplicate, code: response.CodeConflict, key: "promo.duplicate"},
	{target: service.ErrInvalidDiscountType, code: response.CodeBadRequest, key: "promo.invalid_type"},
	{target: service.ErrInvalidDiscountValue, code: response.CodeBadRequest, key: "promo.invalid_value"},
	{target: service.ErrInvalidValidityWindow, code: response.CodeBadRequest, key: "promo.invalid_window"},
}

// CreatePromoCodeRequest 创建优惠码请求
type CreatePromoCodeRequest struct {
	Code               string   `json:"code" binding:"required"`
	DiscountType       string   `json:"discountType" binding:"required"`
	DiscountValue      float64  `json:"discountValue" binding:"required"`
	MaxUses            *int     `json:"maxUses"`
	MaxUsesPerUser     int      `json:"maxUsesPerUser"`
	EligiblePlans      []string `json:"eligiblePlans"`
	ValidFrom          string   `json:"validFrom"`
	ValidUntil         string   `json:"validUntil"`
	Description        string   `json:"description"`
	CreateStripeCoupon *bool    `json:"createStripeCoupon"`
}

// GetAdminPromoCodes 获取优惠码列表
func (h *Handler) GetAdminPromoCodes(c *gin.Context) {
	page, pageSize := parsePagination(c)

	var isActive *bool
	if raw := strings.TrimSpace(c.Query("is_active")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		isActive = &parsed
	}

	promos, total, err := h.PromoCodeAdminService.List(repository.PromoCodeListFilter{
		Page:     page,
		PageSize: pageSize,
		Code:     c.Query("code"),
		Search:   c.Query("search"),
		IsActive: isActive,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "promo.fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, promos, response.NewPagination(page, pageSize, total))
}

// CreatePromoCode 创建优惠码，可选镜像到 Stripe
func (h *Handler) CreatePromoCode(c *gin.Context) {
	var req CreatePromoCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.missing_parameters", err)
		return
	}
	validFrom, err := parseTimeNullable(strings.TrimSpace(req.ValidFrom))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	validUntil, err := parseTimeNullable(strings.TrimSpace(req.ValidUntil))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	createCoupon := h.Config.Promo.SyncOnCreate
	if req.CreateStripeCoupon != nil {
		createCoupon = *req.CreateStripeCoupon
	}

	promo, err := h.PromoCodeAdminService.Create(c.Request.Context(), service.CreatePromoCodeInput{
		Code:               req.Code,
		DiscountType:       req.DiscountType,
		DiscountValue:      models.NewDiscountValueFromFloat(req.DiscountValue),
		MaxUses:            req.MaxUses,
		MaxUsesPerUser:     req.MaxUsesPerUser,
		EligiblePlans:      req.EligiblePlans,
		ValidFrom:          validFrom,
		ValidUntil:         validUntil,
		Description:        req.Description,
		CreateStripeCoupon: createCoupon,
		Mode:               h.stripeMode(c),
	})
	if err != nil {
		respondWithMappedError(c, err, promoAdminErrorRules, response.CodeInternal, "promo.save_failed")
		return
	}

	h.recordAudit(c, models.AuditActionPromoCreate, "promo_code:"+promo.Code, models.JSON{
		"promo_code_id":        promo.ID,
		"discount_type":        promo.DiscountType,
		"discount_value":       promo.DiscountValue.String(),
		"create_stripe_coupon": createCoupon,
	})
	requestLog(c).Infow("admin_promo_code_created",
		"operator_admin_id", currentAdminID(c),
		"promo_code_id", promo.ID,
		"code", promo.Code,
	)
	response.Success(c, promo)
}

// GetAdminPromoCode 获取优惠码详情与统计
func (h *Handler) GetAdminPromoCode(c *gin.Context) {
	id, ok := parsePromoCodeIDParam(c)
	if !ok {
		return
	}
	detail, err := h.PromoCodeAdminService.Get(id)
	if err != nil {
		respondWithMappedError(c, err, promoAdminErrorRules, response.CodeInternal, "promo.fetch_failed")
		return
	}
	response.Success(c, detail)
}

// UpdatePromoCode 部分更新优惠码；显式传 null 可清空 maxUses / validUntil
func (h *Handler) UpdatePromoCode(c *gin.Context) {
	id, ok := parsePromoCodeIDParam(c)
	if !ok {
		return
	}
	var raw map[string]json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	input, err := parsePatchPromoCodeInput(raw)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	promo, err := h.PromoCodeAdminService.Update(c.Request.Context(), id, input)
	if err != nil {
		respondWithMappedError(c, err, promoAdminErrorRules, response.CodeInternal, "promo.save_failed")
		return
	}

	fields := make([]string, 0, len(raw))
	for key := range raw {
		fields = append(fields, key)
	}
	h.recordAudit(c, models.AuditActionPromoUpdate, "promo_code:"+promo.Code, models.JSON{
		"promo_code_id": promo.ID,
		"fields":        fields,
	})
	response.Success(c, promo)
}

// DeletePromoCode 删除优惠码及其 Stripe 优惠券
func (h *Handler) DeletePromoCode(c *gin.Context) {
	id, ok := parsePromoCodeIDParam(c)
	if !ok {
		return
	}
	if err := h.PromoCodeAdminService.Delete(c.Request.Context(), id, h.stripeMode(c)); err != nil {
		respondWithMappedError(c, err, promoAdminErrorRules, response.CodeInternal, "promo.delete_failed")
		return
	}
	h.recordAudit(c, models.AuditActionPromoDelete, "promo_code:"+strconv.FormatUint(uint64(id), 10), models.JSON{
		"promo_code_id": id,
	})
	response.Success(c, gin.H{"deleted": true})
}

func parsePromoCodeIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return 0, false
	}
	return uint(id), true
}

func isJSONNull(value json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(value), []byte("null"))
}

func parsePatchPromoCodeInput(raw map[string]json.RawMessage) (service.PatchPromoCodeInput, error) {
	var input service.PatchPromoCodeInput
	if value, ok := raw["isActive"]; ok && !isJSONNull(value) {
		var isActive bool
		if err := json.Unmarshal(value, &isActive); err != nil {
			return input, err
		}
		input.IsActive = &isActive
	}
	if value, ok := raw["maxUses"]; ok {
		if isJSONNull(value) {
			input.ClearMaxUses = true
		} else {
			var maxUses int
			if err := json.Unmarshal(value, &maxUses); err != nil {
				return input, err
			}
			input.MaxUses = &maxUses
		}
	}
	if value, ok := raw["maxUsesPerUser"]; ok && !isJSONNull(value) {
		var perUser int
		if err := json.Unmarshal(value, &perUser); err != nil {
			return input, err
		}
		input.MaxUsesPerUser = &perUser
	}
	if value, ok := raw["validUntil"]; ok {
		if isJSONNull(value) {
			input.ClearValidUntil = true
		} else {
			var validUntil time.Time
			if err := json.Unmarshal(value, &validUntil); err != nil {
				return input, err
			}
			input.ValidUntil = &validUntil
		}
	}
	if value, ok := raw["description"]; ok {
		description := ""
		if !isJSONNull(value) {
			if err := json.Unmarshal(value, &description); err != nil {
				return input, err
			}
		}
		input.Description = &description
	}
	if value, ok := raw["eligiblePlans"]; ok {
		plans := []string{}
		if !isJSONNull(value) {
			if err := json.Unmarshal(value, &plans); err != nil {
				return input, err
			}
		}
		input.EligiblePlans = &plans
	}
	return input, nil
}

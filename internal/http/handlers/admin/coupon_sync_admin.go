package admin

import (
	"net/http"
	"strconv"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/http/response"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/i18n"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/models"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/queue"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/service"

	"github.com/gin-gonic/gin"
)

var couponSyncErrorRules = []mappedHandlerError{
	{target: service.ErrStripeNotConfigured, code: response.CodeServiceUnavailable, key: "error.stripe_not_configured"},
}

// SyncStripeCouponsRequest 同步请求
type SyncStripeCouponsRequest struct {
	Codes []string `json:"codes"`
	Force bool     `json:"force"`
}

// SyncStripeCoupons 将启用中的优惠码同步到 Stripe；?async=true 时改为入队
func (h *Handler) SyncStripeCoupons(c *gin.Context) {
	var req SyncStripeCouponsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
	}
	mode := h.stripeMode(c)
	async, _ := strconv.ParseBool(c.Query("async"))

	h.recordAudit(c, models.AuditActionCouponSync, "stripe_coupons", models.JSON{
		"mode":  mode,
		"codes": req.Codes,
		"force": req.Force,
		"async": async,
	})

	if async && h.QueueClient != nil && h.QueueClient.Enabled() {
		taskID, err := h.QueueClient.EnqueuePromoCouponSync(queue.PromoCouponSyncPayload{
			Mode:  mode,
			Codes: req.Codes,
			Force: req.Force,
		})
		if err != nil {
			respondError(c, response.CodeServiceUnavailable, "error.queue_unavailable", err)
			return
		}
		requestLog(c).Infow("admin_coupon_sync_enqueued", "task_id", taskID, "mode", mode)
		response.Raw(c, http.StatusAccepted, response.Response{
			StatusCode: response.CodeOK,
			Msg:        i18n.T(i18n.ResolveLocale(c), "promo.sync_queued"),
			Data:       gin.H{"task_id": taskID, "mode": mode},
		})
		return
	}

	result, err := h.CouponSyncService.Sync(c.Request.Context(), service.CouponSyncInput{
		Mode:  mode,
		Codes: req.Codes,
		Force: req.Force,
	})
	if err != nil {
		respondWithMappedError(c, err, couponSyncErrorRules, response.CodeInternal, "promo.sync_failed")
		return
	}
	requestLog(c).Infow("admin_coupon_sync_finished",
		"mode", result.Mode,
		"total", result.Total,
		"synced", len(result.Synced),
		"skipped", len(result.Skipped),
		"errors", len(result.Errors),
	)
	response.SuccessWithMsg(c, result.Message, result)
}

// GetStripeCouponStatus 对比 Stripe 优惠券与本地优惠码
func (h *Handler) GetStripeCouponStatus(c *gin.Context) {
	status, err := h.CouponSyncService.Status(c.Request.Context(), h.stripeMode(c))
	if err != nil {
		respondWithMappedError(c, err, couponSyncErrorRules, response.CodeInternal, "promo.sync_failed")
		return
	}
	response.Success(c, status)
}

package public

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/http/response"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/i18n"

	"github.com/gin-gonic/gin"
)

// StripeWebhook Stripe webhook 回调，直接返回 HTTP 状态码（非 2xx 会触发 Stripe 重投）。
func (h *Handler) StripeWebhook(c *gin.Context) {
	log := requestLog(c)
	limit := h.webhookBodyLimit
	if limit <= 0 {
		limit = defaultWebhookBodyLimit
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, limit+1))
	if err != nil {
		log.Warnw("stripe_webhook_body_read_failed", "error", err)
		respondWebhookError(c, response.CodeBadRequest, "error.bad_request")
		return
	}
	if int64(len(body)) > limit {
		log.Warnw("stripe_webhook_body_too_large", "limit", limit, "client_ip", c.ClientIP())
		respondWebhookError(c, response.CodePayloadTooLarge, "webhook.payload_too_large")
		return
	}
	signature := strings.TrimSpace(c.GetHeader("Stripe-Signature"))
	mode := h.stripeMode(c)
	log.Infow("stripe_webhook_received",
		"mode", mode,
		"client_ip", c.ClientIP(),
		"body_size", len(body),
		"has_signature", signature != "",
	)

	result, err := h.SubscriptionService.HandleWebhook(c.Request.Context(), mode, body, signature)
	if err != nil {
		log.Warnw("stripe_webhook_handle_failed", "mode", mode, "error", err)
		for _, rule := range webhookErrorRules {
			if errors.Is(err, rule.target) {
				respondWebhookError(c, rule.code, rule.key)
				return
			}
		}
		respondWebhookError(c, response.CodeInternal, "webhook.process_failed")
		return
	}

	log.Infow("stripe_webhook_processed",
		"mode", mode,
		"event_id", result.EventID,
		"event_type", result.Type,
		"handled", result.Handled,
	)
	response.Raw(c, http.StatusOK, gin.H{"received": true, "event_type": result.Type, "handled": result.Handled})
}

func respondWebhookError(c *gin.Context, code int, key string) {
	response.Raw(c, response.HTTPStatus(code), gin.H{"received": false, "error": i18n.T(i18n.ResolveLocale(c), key)})
}

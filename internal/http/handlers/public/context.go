package public

import (
	"strconv"
	"strings"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/constants"
	handlershared "github.com/damsblt/only-you-coaching-app-sub005/internal/http/handlers/shared"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/provider"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultWebhookBodyLimit int64 = 65536

// Handler 前台接口：优惠码、套餐与结账、Stripe 回调、素材签名
type Handler struct {
	*provider.Container
	webhookBodyLimit int64
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c, webhookBodyLimit: defaultWebhookBodyLimit}
}

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

// stripeMode 根据请求域名确定 Stripe 模式
func (h *Handler) stripeMode(c *gin.Context) string {
	return h.StripeMode(c.Request.Host)
}

// tagRequest 记录用户与优惠码，供请求日志使用
func tagRequest(c *gin.Context, userID, promoCode string) {
	if userID = strings.TrimSpace(userID); userID != "" {
		c.Set(constants.ContextKeyUserID, userID)
	}
	if promoCode = strings.TrimSpace(promoCode); promoCode != "" {
		c.Set(constants.ContextKeyPromoCode, promoCode)
	}
}

func promoCodeIDTag(id uint) string {
	if id == 0 {
		return ""
	}
	return "#" + strconv.FormatUint(uint64(id), 10)
}

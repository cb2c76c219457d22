package admin

import (
	"github.com/damsblt/only-you-coaching-app-sub005/internal/constants"
	handlershared "github.com/damsblt/only-you-coaching-app-sub005/internal/http/handlers/shared"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/provider"

	"github.com/gin-gonic/gin"
)

// Handler 后台接口：登录、优惠码管理、优惠券同步、订阅查询、权限与审计
type Handler struct {
	*provider.Container
}

// New 创建后台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

func getAdminID(c *gin.Context) (uint, bool) {
	return handlershared.RequireAdminID(c)
}

func currentAdminID(c *gin.Context) uint {
	adminID, _ := handlershared.AdminIDFromContext(c)
	return adminID
}

func currentUsername(c *gin.Context) string {
	return handlershared.ContextString(c, constants.ContextKeyUsername)
}

func currentRequestID(c *gin.Context) string {
	return handlershared.ContextString(c, constants.ContextKeyRequestID)
}

// stripeMode 根据请求域名确定 Stripe 模式
func (h *Handler) stripeMode(c *gin.Context) string {
	return h.StripeMode(c.Request.Host)
}

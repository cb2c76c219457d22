package admin

import (
	"strings"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/http/response"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetAdminSubscriptions 获取订阅列表
func (h *Handler) GetAdminSubscriptions(c *gin.Context) {
	page, pageSize := parsePagination(c)

	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	items, total, err := h.SubscriptionService.List(repository.SubscriptionListFilter{
		Page:        page,
		PageSize:    pageSize,
		UserID:      strings.TrimSpace(c.Query("user_id")),
		PlanID:      strings.TrimSpace(c.Query("plan_id")),
		Status:      strings.ToUpper(strings.TrimSpace(c.Query("status"))),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "subscription.fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, items, response.NewPagination(page, pageSize, total))
}

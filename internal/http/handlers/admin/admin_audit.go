package admin

import (
	"strconv"
	"strings"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/http/response"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/models"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/repository"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/service"

	"github.com/gin-gonic/gin"
)

// ListAdminAuditLogs 获取后台操作审计日志
func (h *Handler) ListAdminAuditLogs(c *gin.Context) {
	page, pageSize := parsePagination(c)

	var operatorAdminID uint
	if raw := strings.TrimSpace(c.Query("operator_admin_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		operatorAdminID = uint(parsed)
	}
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

	items, total, err := h.AdminAuditService.List(repository.AdminAuditLogListFilter{
		Page:            page,
		PageSize:        pageSize,
		OperatorAdminID: operatorAdminID,
		Action:          strings.TrimSpace(c.Query("action")),
		Object:          strings.TrimSpace(c.Query("object")),
		CreatedFrom:     createdFrom,
		CreatedTo:       createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "audit.fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, items, response.NewPagination(page, pageSize, total))
}

func (h *Handler) recordAudit(c *gin.Context, action, object string, detail models.JSON) {
	if h == nil || h.AdminAuditService == nil {
		return
	}
	h.AdminAuditService.Record(service.AdminAuditRecordInput{
		OperatorAdminID:  currentAdminID(c),
		OperatorUsername: currentUsername(c),
		Action:           action,
		Object:           object,
		Method:           c.Request.Method,
		RequestID:        currentRequestID(c),
		Detail:           detail,
	})
}

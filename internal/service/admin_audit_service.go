package service

import (
	"strings"
	"time"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/logger"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/models"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/repository"
)

// AdminAuditRecordInput 审计记录输入
type AdminAuditRecordInput struct {
	OperatorAdminID  uint
	OperatorUsername string
	Action           string
	Object           string
	Method           string
	RequestID        string
	Detail           models.JSON
}

// AdminAuditService 后台审计服务
type AdminAuditService struct {
	repo repository.AdminAuditLogRepository
	now  func() time.Time
}

// NewAdminAuditService 创建审计服务
func NewAdminAuditService(repo repository.AdminAuditLogRepository) *AdminAuditService {
	return &AdminAuditService{repo: repo, now: time.Now}
}

// Record 写入审计日志，失败只记录日志不影响业务
func (s *AdminAuditService) Record(input AdminAuditRecordInput) {
	if s == nil || s.repo == nil {
		return
	}
	if input.OperatorAdminID == 0 || strings.TrimSpace(input.Action) == "" {
		return
	}
	item := &models.AdminAuditLog{
		OperatorAdminID:  input.OperatorAdminID,
		OperatorUsername: strings.TrimSpace(input.OperatorUsername),
		Action:           strings.TrimSpace(input.Action),
		Object:           strings.TrimSpace(input.Object),
		Method:           strings.ToUpper(strings.TrimSpace(input.Method)),
		RequestID:        strings.TrimSpace(input.RequestID),
		DetailJSON:       input.Detail,
		CreatedAt:        s.now(),
	}
	if err := s.repo.Create(item); err != nil {
		logger.Warnw("admin_audit_record_failed", "action", item.Action, "object", item.Object, "error", err)
	}
}

// List 查询审计日志
func (s *AdminAuditService) List(filter repository.AdminAuditLogListFilter) ([]models.AdminAuditLog, int64, error) {
	if s == nil || s.repo == nil {
		return []models.AdminAuditLog{}, 0, nil
	}
	return s.repo.List(filter)
}

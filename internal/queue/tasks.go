package queue

import (
	"encoding/json"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskPromoCouponMirror 单个优惠码镜像到 Stripe
	TaskPromoCouponMirror = constants.TaskPromoCouponMirror
	// TaskPromoCouponSync 批量同步优惠码到 Stripe
	TaskPromoCouponSync = constants.TaskPromoCouponSync
)

// PromoCouponMirrorPayload 镜像任务载荷
type PromoCouponMirrorPayload struct {
	PromoCodeID uint   `json:"promo_code_id"`
	Mode        string `json:"mode"`
}

// PromoCouponSyncPayload 批量同步任务载荷
type PromoCouponSyncPayload struct {
	Mode  string   `json:"mode"`
	Codes []string `json:"codes,omitempty"`
	Force bool     `json:"force"`
}

// NewPromoCouponMirrorTask 创建镜像任务
func NewPromoCouponMirrorTask(payload PromoCouponMirrorPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPromoCouponMirror, body), nil
}

// NewPromoCouponSyncTask 创建批量同步任务
func NewPromoCouponSyncTask(payload PromoCouponSyncPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPromoCouponSync, body), nil
}

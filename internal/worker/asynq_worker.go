package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/logger"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/provider"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/queue"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskPromoCouponMirror, c.handlePromoCouponMirror)
	mux.HandleFunc(queue.TaskPromoCouponSync, c.handlePromoCouponSync)
}

// handlePromoCouponMirror 镜像单个优惠码；Stripe 失败只记录日志，不触发重试
func (c *Consumer) handlePromoCouponMirror(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_promo_coupon_mirror_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.PromoCouponMirrorPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_promo_coupon_mirror_unmarshal_failed", "error", err)
		return asynq.SkipRetry
	}
	if payload.PromoCodeID == 0 {
		logger.Debugw("worker_promo_coupon_mirror_skip_invalid_payload", "promo_code_id", payload.PromoCodeID)
		return nil
	}
	if c.Container == nil || c.CouponSyncService == nil {
		logger.Warnw("worker_promo_coupon_mirror_skip_service_nil", "promo_code_id", payload.PromoCodeID)
		return nil
	}
	err := c.CouponSyncService.MirrorOne(ctx, payload.Mode, payload.PromoCodeID)
	switch {
	case err == nil:
		logger.Infow("worker_promo_coupon_mirror_done", "promo_code_id", payload.PromoCodeID, "mode", payload.Mode)
		return nil
	case errors.Is(err, service.ErrPromoCodeNotFound):
		logger.Debugw("worker_promo_coupon_mirror_skip_not_found", "promo_code_id", payload.PromoCodeID)
		return nil
	case errors.Is(err, service.ErrStripeNotConfigured):
		logger.Warnw("worker_promo_coupon_mirror_skip_stripe_not_configured", "promo_code_id", payload.PromoCodeID)
		return nil
	default:
		logger.Warnw("worker_promo_coupon_mirror_failed", "promo_code_id", payload.PromoCodeID, "mode", payload.Mode, "error", err)
		return nil
	}
}

func (c *Consumer) handlePromoCouponSync(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_promo_coupon_sync_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.PromoCouponSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_promo_coupon_sync_unmarshal_failed", "error", err)
		return asynq.SkipRetry
	}
	if c.Container == nil || c.CouponSyncService == nil {
		logger.Warnw("worker_promo_coupon_sync_skip_service_nil", "mode", payload.Mode)
		return nil
	}
	result, err := c.CouponSyncService.Sync(ctx, service.CouponSyncInput{
		Mode:  payload.Mode,
		Codes: payload.Codes,
		Force: payload.Force,
	})
	if err != nil {
		logger.Warnw("worker_promo_coupon_sync_failed", "mode", payload.Mode, "error", err)
		return nil
	}
	logger.Infow("worker_promo_coupon_sync_done",
		"mode", result.Mode,
		"total", result.Total,
		"synced", len(result.Synced),
		"skipped", len(result.Skipped),
		"failed", len(result.Errors),
	)
	return nil
}

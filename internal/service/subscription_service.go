package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/config"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/constants"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/logger"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/metrics"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/models"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/payment/stripe"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/repository"
)

const defaultAccessPlanID = "essentiel"

// SubscriptionService 套餐、结账与订阅状态同步
type SubscriptionService struct {
	cfg          *config.Config
	subRepo      repository.SubscriptionRepository
	promoService *PromoCodeService
	resolver     StripeResolver
	now          func() time.Time
}

// NewSubscriptionService 创建订阅服务
func NewSubscriptionService(cfg *config.Config, subRepo repository.SubscriptionRepository, promoService *PromoCodeService, resolver StripeResolver) *SubscriptionService {
	return &SubscriptionService{
		cfg:          cfg,
		subRepo:      subRepo,
		promoService: promoService,
		resolver:     resolver,
		now:          time.Now,
	}
}

// Plans 返回套餐目录
func (s *SubscriptionService) Plans() []config.PlanConfig {
	if s == nil || s.cfg == nil {
		return nil
	}
	plans := make([]config.PlanConfig, len(s.cfg.Plans))
	copy(plans, s.cfg.Plans)
	return plans
}

// CheckoutRequest 创建结账会话参数
type CheckoutRequest struct {
	PlanID    string
	UserID    string
	Email     string
	PromoCode string
	Mode      string
}

// CheckoutResult 结账会话结果
type CheckoutResult struct {
	SessionID string         `json:"sessionId"`
	URL       string         `json:"url"`
	Mode      string         `json:"mode"`
	Discount  *PromoDiscount `json:"discount,omitempty"`
}

// CreateCheckout 创建 Stripe 订阅结账会话；携带优惠码时先完整校验再挂载镜像的优惠券
func (s *SubscriptionService) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	planID := strings.TrimSpace(req.PlanID)
	userID := strings.TrimSpace(req.UserID)
	if planID == "" || userID == "" {
		return nil, ErrMissingParameters
	}
	plan, ok := s.cfg.FindPlan(planID)
	if !ok {
		return nil, ErrPlanNotFound
	}
	if strings.TrimSpace(plan.StripePriceID) == "" {
		return nil, ErrPlanPriceMissing
	}
	gateway, err := resolveGateway(s.resolver, req.Mode)
	if err != nil {
		return nil, err
	}

	metadata := map[string]string{
		constants.MetadataUserID:         userID,
		constants.MetadataPlanID:         plan.ID,
		constants.MetadataOriginalAmount: strconv.FormatInt(plan.Amount, 10),
		constants.MetadataFinalAmount:    strconv.FormatInt(plan.Amount, 10),
	}
	input := stripe.CheckoutInput{
		PriceID:           plan.StripePriceID,
		CustomerEmail:     req.Email,
		ClientReferenceID: userID,
		SuccessURL:        s.cfg.Stripe.SuccessURL,
		CancelURL:         s.cfg.Stripe.CancelURL,
		Metadata:          metadata,
	}

	var discount *PromoDiscount
	if strings.TrimSpace(req.PromoCode) != "" {
		validation, err := s.promoService.Validate(ctx, ValidatePromoCodeInput{
			Code:           req.PromoCode,
			PlanID:         plan.ID,
			UserID:         userID,
			OriginalAmount: plan.Amount,
		})
		if err != nil {
			return nil, err
		}
		promo := validation.PromoCode
		input.CouponID = promo.CouponID()
		metadata[constants.MetadataPromoCodeID] = strconv.FormatUint(uint64(promo.ID), 10)
		metadata[constants.MetadataPromoCode] = promo.Code
		metadata[constants.MetadataDiscountAmount] = strconv.FormatInt(validation.Discount.Amount, 10)
		metadata[constants.MetadataFinalAmount] = strconv.FormatInt(validation.Discount.FinalAmount, 10)
		discount = &validation.Discount
	}

	session, err := gateway.CreateCheckoutSession(ctx, input)
	if err != nil {
		logger.Warnw("checkout_session_create_failed", "plan_id", plan.ID, "user_id", userID, "mode", gateway.Mode(), "error", err)
		return nil, ErrCheckoutCreateFailed
	}
	return &CheckoutResult{SessionID: session.ID, URL: session.URL, Mode: gateway.Mode(), Discount: discount}, nil
}

// WebhookResult webhook 处理结果
type WebhookResult struct {
	EventID string `json:"event_id"`
	Type    string `json:"type"`
	Handled bool   `json:"handled"`
}

// HandleWebhook 校验签名并按事件类型更新本地订阅
func (s *SubscriptionService) HandleWebhook(ctx context.Context, mode string, payload []byte, signature string) (*WebhookResult, error) {
	gateway, err := resolveGateway(s.resolver, mode)
	if err != nil {
		return nil, err
	}
	event, err := gateway.ParseWebhook(payload, signature)
	if err != nil {
		metrics.ObserveWebhook("unknown", "rejected")
		if errors.Is(err, stripe.ErrConfigInvalid) {
			return nil, ErrStripeNotConfigured
		}
		return nil, ErrWebhookSignature
	}

	result := &WebhookResult{EventID: event.ID, Type: event.Type}
	switch {
	case event.Type == stripe.EventCheckoutSessionCompleted && event.Checkout != nil:
		err = s.handleCheckoutCompleted(ctx, event.Checkout)
		result.Handled = true
	case (event.Type == stripe.EventSubscriptionUpdated || event.Type == stripe.EventSubscriptionDeleted) && event.Subscription != nil:
		err = s.handleSubscriptionChange(event.Type, event.Subscription)
		result.Handled = true
	default:
		logger.Debugw("stripe_webhook_event_ignored", "event_id", event.ID, "type", event.Type)
	}
	if err != nil {
		metrics.ObserveWebhook(event.Type, "failed")
		logger.Errorw("stripe_webhook_process_failed", "event_id", event.ID, "type", event.Type, "error", err)
		return result, ErrWebhookProcessFailed
	}
	if result.Handled {
		metrics.ObserveWebhook(event.Type, "handled")
	} else {
		metrics.ObserveWebhook(event.Type, "ignored")
	}
	return result, nil
}

func (s *SubscriptionService) handleCheckoutCompleted(ctx context.Context, checkout *stripe.CheckoutCompleted) error {
	userID := strings.TrimSpace(checkout.Metadata[constants.MetadataUserID])
	if userID == "" {
		userID = strings.TrimSpace(checkout.ClientReferenceID)
	}
	if userID == "" || checkout.SubscriptionID == "" {
		logger.Warnw("stripe_checkout_missing_reference", "session_id", checkout.SessionID, "subscription_id", checkout.SubscriptionID)
		return nil
	}

	planID := strings.TrimSpace(checkout.Metadata[constants.MetadataPlanID])
	now := s.now()
	subscription, err := s.subRepo.GetByStripeSubscriptionID(checkout.SubscriptionID)
	if err != nil {
		return err
	}
	if subscription == nil {
		subscription = &models.Subscription{StripeSubscriptionID: checkout.SubscriptionID}
	}
	subscription.UserID = userID
	subscription.StripeCustomerID = checkout.CustomerID
	subscription.Status = models.SubscriptionStatusActive
	if planID != "" {
		subscription.PlanID = planID
	}
	if plan, ok := s.cfg.FindPlan(subscription.PlanID); ok {
		subscription.StripePriceID = plan.StripePriceID
		if plan.CommitmentMonths > 0 && subscription.CommitmentEndDate == nil {
			end := now.AddDate(0, plan.CommitmentMonths, 0)
			subscription.CommitmentEndDate = &end
		}
	}
	if subscription.ID == 0 {
		err = s.subRepo.Create(subscription)
	} else {
		err = s.subRepo.Update(subscription)
	}
	if err != nil {
		return err
	}
	logger.Infow("subscription_activated", "user_id", userID, "plan_id", subscription.PlanID, "stripe_subscription_id", checkout.SubscriptionID)

	return s.recordRedemption(ctx, checkout, userID)
}

// recordRedemption 结账完成后登记优惠码使用；重复登记仅记录日志
func (s *SubscriptionService) recordRedemption(ctx context.Context, checkout *stripe.CheckoutCompleted, userID string) error {
	raw := strings.TrimSpace(checkout.Metadata[constants.MetadataPromoCodeID])
	if raw == "" || s.promoService == nil {
		return nil
	}
	promoCodeID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || promoCodeID == 0 {
		logger.Warnw("stripe_checkout_promo_code_id_invalid", "session_id", checkout.SessionID, "promo_code_id", raw)
		return nil
	}
	original := parseMetadataAmount(checkout.Metadata[constants.MetadataOriginalAmount], checkout.AmountSubtotal)
	final := parseMetadataAmount(checkout.Metadata[constants.MetadataFinalAmount], checkout.AmountTotal)
	discount := parseMetadataAmount(checkout.Metadata[constants.MetadataDiscountAmount], original-final)

	_, err = s.promoService.Apply(ctx, ApplyPromoCodeInput{
		PromoCodeID:    uint(promoCodeID),
		UserID:         userID,
		SubscriptionID: checkout.SubscriptionID,
		DiscountAmount: discount,
		OriginalAmount: original,
		FinalAmount:    final,
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrPromoCodeAlreadyRedeemed):
		logger.Infow("promo_code_already_redeemed", "promo_code_id", promoCodeID, "user_id", userID, "stripe_subscription_id", checkout.SubscriptionID)
		return nil
	case errors.Is(err, ErrPromoCodeLimitReached), errors.Is(err, ErrPromoCodeNotFound):
		logger.Warnw("promo_code_redemption_rejected", "promo_code_id", promoCodeID, "user_id", userID, "error", err)
		return nil
	default:
		return err
	}
}

func (s *SubscriptionService) handleSubscriptionChange(eventType string, change *stripe.SubscriptionChange) error {
	subscription, err := s.subRepo.GetByStripeSubscriptionID(change.SubscriptionID)
	if err != nil {
		return err
	}
	if subscription == nil {
		logger.Warnw("subscription_change_unknown", "stripe_subscription_id", change.SubscriptionID, "type", eventType)
		return nil
	}
	if eventType == stripe.EventSubscriptionDeleted {
		subscription.Status = models.SubscriptionStatusCanceled
	} else {
		subscription.Status = mapStripeSubscriptionStatus(change.Status)
	}
	if change.CurrentPeriodEnd != nil {
		subscription.CurrentPeriodEnd = change.CurrentPeriodEnd
	}
	if change.PriceID != "" {
		subscription.StripePriceID = change.PriceID
	}
	if change.CustomerID != "" {
		subscription.StripeCustomerID = change.CustomerID
	}
	subscription.CancelAtPeriodEnd = change.CancelAtPeriodEnd
	subscription.CancelAt = change.CancelAt
	return s.subRepo.Update(subscription)
}

// GetLatestByUser 获取用户最新订阅
func (s *SubscriptionService) GetLatestByUser(userID string) (*models.Subscription, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrMissingParameters
	}
	subscription, err := s.subRepo.GetLatestByUser(userID)
	if err != nil {
		return nil, ErrSubscriptionFetchFailed
	}
	if subscription == nil {
		return nil, ErrSubscriptionNotFound
	}
	return subscription, nil
}

// CancelSubscriptionRequest 取消订阅参数
type CancelSubscriptionRequest struct {
	UserID               string
	StripeSubscriptionID string
	Mode                 string
}

// CancelSubscriptionResult 取消结果；承诺期内为预约取消
type CancelSubscriptionResult struct {
	IsCommitmentPeriod bool       `json:"isCommitmentPeriod"`
	CancelAt           *time.Time `json:"cancelAt,omitempty"`
	CommitmentMonths   int        `json:"commitmentMonths,omitempty"`
	RemainingPeriods   int        `json:"remainingPeriods"`
}

// CancelSubscription 承诺期内预约在承诺结束时取消，承诺期外立即取消
func (s *SubscriptionService) CancelSubscription(ctx context.Context, req CancelSubscriptionRequest) (*CancelSubscriptionResult, error) {
	userID := strings.TrimSpace(req.UserID)
	stripeID := strings.TrimSpace(req.StripeSubscriptionID)
	if userID == "" || stripeID == "" {
		return nil, ErrMissingParameters
	}
	subscription, err := s.subRepo.GetByStripeSubscriptionID(stripeID)
	if err != nil {
		return nil, ErrSubscriptionFetchFailed
	}
	if subscription == nil || subscription.UserID != userID {
		return nil, ErrSubscriptionNotFound
	}
	if subscription.Status == models.SubscriptionStatusCanceled {
		return nil, ErrSubscriptionNotActive
	}
	gateway, err := resolveGateway(s.resolver, req.Mode)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if end := subscription.CommitmentEndDate; end != nil && now.Before(*end) {
		months := s.commitmentMonths(subscription)
		change, err := gateway.ScheduleCancellation(ctx, stripeID, *end)
		if err != nil {
			logger.Warnw("subscription_schedule_cancel_failed", "user_id", userID, "stripe_subscription_id", stripeID, "error", err)
			return nil, mapGatewayCancelError(err)
		}
		cancelAt := *end
		if change != nil && change.CancelAt != nil {
			cancelAt = *change.CancelAt
		}
		subscription.CancelAt = &cancelAt
		subscription.CancelAtPeriodEnd = false
		if err := s.subRepo.Update(subscription); err != nil {
			return nil, ErrSubscriptionCancelFailed
		}
		logger.Infow("subscription_cancel_scheduled", "user_id", userID, "stripe_subscription_id", stripeID, "cancel_at", cancelAt)
		return &CancelSubscriptionResult{
			IsCommitmentPeriod: true,
			CancelAt:           &cancelAt,
			CommitmentMonths:   months,
			RemainingPeriods:   remainingPeriods(commitmentStart(subscription, months), *end, now),
		}, nil
	}

	if _, err := gateway.CancelSubscription(ctx, stripeID); err != nil {
		logger.Warnw("subscription_cancel_failed", "user_id", userID, "stripe_subscription_id", stripeID, "error", err)
		return nil, mapGatewayCancelError(err)
	}
	subscription.Status = models.SubscriptionStatusCanceled
	subscription.CancelAtPeriodEnd = false
	subscription.CancelAt = &now
	if err := s.subRepo.Update(subscription); err != nil {
		return nil, ErrSubscriptionCancelFailed
	}
	logger.Infow("subscription_canceled", "user_id", userID, "stripe_subscription_id", stripeID)
	return &CancelSubscriptionResult{}, nil
}

func (s *SubscriptionService) commitmentMonths(subscription *models.Subscription) int {
	if plan, ok := s.planFor(subscription); ok {
		return plan.CommitmentMonths
	}
	return 0
}

func (s *SubscriptionService) planFor(subscription *models.Subscription) (config.PlanConfig, bool) {
	if plan, ok := s.cfg.FindPlan(subscription.PlanID); ok {
		return plan, true
	}
	return s.cfg.FindPlanByPriceID(subscription.StripePriceID)
}

func commitmentStart(subscription *models.Subscription, months int) time.Time {
	if months > 0 && subscription.CommitmentEndDate != nil {
		return subscription.CommitmentEndDate.AddDate(0, -months, 0)
	}
	return subscription.CreatedAt
}

// remainingPeriods 统计 (now, end) 之间尚未到来的月度扣款日
func remainingPeriods(start, end, now time.Time) int {
	if start.IsZero() {
		return 0
	}
	count := 0
	for step := 0; ; step++ {
		billing := start.AddDate(0, step, 0)
		if !billing.Before(end) {
			return count
		}
		if billing.After(now) {
			count++
		}
	}
}

func mapGatewayCancelError(err error) error {
	if errors.Is(err, stripe.ErrSubscriptionGone) {
		return ErrSubscriptionNotFound
	}
	return ErrSubscriptionCancelFailed
}

// AccessResult 用户功能权限
type AccessResult struct {
	HasAccess    bool                 `json:"hasAccess"`
	PlanID       string               `json:"planId,omitempty"`
	Features     config.PlanFeatures  `json:"features"`
	Subscription *models.Subscription `json:"subscription,omitempty"`
}

// CheckAccess 根据有效订阅返回套餐功能，无有效订阅时无权限
func (s *SubscriptionService) CheckAccess(userID string) (*AccessResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrMissingParameters
	}
	subscription, err := s.subRepo.GetActiveByUser(userID, s.now())
	if err != nil {
		return nil, ErrSubscriptionFetchFailed
	}
	if subscription == nil {
		return &AccessResult{}, nil
	}
	plan, ok := s.planFor(subscription)
	if !ok {
		// 无法识别套餐时按入门个性化套餐授权
		plan, _ = s.cfg.FindPlan(defaultAccessPlanID)
	}
	return &AccessResult{
		HasAccess:    true,
		PlanID:       plan.ID,
		Features:     plan.Features,
		Subscription: subscription,
	}, nil
}

// List 后台分页获取订阅
func (s *SubscriptionService) List(filter repository.SubscriptionListFilter) ([]models.Subscription, int64, error) {
	subscriptions, total, err := s.subRepo.List(filter)
	if err != nil {
		return nil, 0, ErrSubscriptionFetchFailed
	}
	return subscriptions, total, nil
}

func mapStripeSubscriptionStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "active":
		return models.SubscriptionStatusActive
	case "past_due":
		return models.SubscriptionStatusPastDue
	case "unpaid":
		return models.SubscriptionStatusUnpaid
	case "trialing":
		return models.SubscriptionStatusTrialing
	case "canceled", "incomplete_expired":
		return models.SubscriptionStatusCanceled
	default:
		return strings.ToUpper(strings.TrimSpace(status))
	}
}

func parseMetadataAmount(raw string, fallback int64) int64 {
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return fallback
	}
	return value
}

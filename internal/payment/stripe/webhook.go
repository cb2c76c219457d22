package stripe

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	stripego "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// 关注的 webhook 事件
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventSubscriptionUpdated      = "customer.subscription.updated"
	EventSubscriptionDeleted      = "customer.subscription.deleted"
)

const defaultWebhookTolerance = 300 * time.Second

// CheckoutCompleted 结账完成事件摘要
type CheckoutCompleted struct {
	SessionID         string
	CustomerID        string
	CustomerEmail     string
	SubscriptionID    string
	ClientReferenceID string
	AmountSubtotal    int64
	AmountTotal       int64
	Metadata          map[string]string
}

// SubscriptionChange 订阅变更事件摘要
type SubscriptionChange struct {
	SubscriptionID    string
	CustomerID        string
	Status            string
	PriceID           string
	CurrentPeriodEnd  *time.Time
	CancelAt          *time.Time
	CancelAtPeriodEnd bool
	Metadata          map[string]string
}

// WebhookEvent 解析后的 webhook 事件
type WebhookEvent struct {
	ID           string
	Type         string
	Checkout     *CheckoutCompleted
	Subscription *SubscriptionChange
}

// ParseWebhook 校验签名并解析事件
func ParseWebhook(secret string, payload []byte, signatureHeader string) (*WebhookEvent, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, fmt.Errorf("%w: webhook secret is required", ErrConfigInvalid)
	}
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, secret, webhook.ConstructEventOptions{
		Tolerance:                defaultWebhookTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}

	result := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if event.Data == nil {
		return result, nil
	}
	switch result.Type {
	case EventCheckoutSessionCompleted:
		var session stripego.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		result.Checkout = checkoutFromSession(&session)
	case EventSubscriptionUpdated, EventSubscriptionDeleted:
		var subscription stripego.Subscription
		if err := json.Unmarshal(event.Data.Raw, &subscription); err != nil {
			return nil, fmt.Errorf("decode subscription: %w", err)
		}
		result.Subscription = changeFromSubscription(&subscription)
	}
	return result, nil
}

// ParseWebhook 使用客户端配置的密钥解析事件
func (c *Client) ParseWebhook(payload []byte, signatureHeader string) (*WebhookEvent, error) {
	return ParseWebhook(c.webhookSecret, payload, signatureHeader)
}

func checkoutFromSession(session *stripego.CheckoutSession) *CheckoutCompleted {
	out := &CheckoutCompleted{
		SessionID:         session.ID,
		CustomerEmail:     session.CustomerEmail,
		ClientReferenceID: session.ClientReferenceID,
		AmountSubtotal:    session.AmountSubtotal,
		AmountTotal:       session.AmountTotal,
		Metadata:          session.Metadata,
	}
	if session.Customer != nil {
		out.CustomerID = session.Customer.ID
	}
	if session.Subscription != nil {
		out.SubscriptionID = session.Subscription.ID
	}
	if out.CustomerEmail == "" && session.CustomerDetails != nil {
		out.CustomerEmail = session.CustomerDetails.Email
	}
	if out.Metadata == nil {
		out.Metadata = map[string]string{}
	}
	return out
}

func changeFromSubscription(subscription *stripego.Subscription) *SubscriptionChange {
	out := &SubscriptionChange{
		SubscriptionID:    subscription.ID,
		Status:            string(subscription.Status),
		CancelAtPeriodEnd: subscription.CancelAtPeriodEnd,
		Metadata:          subscription.Metadata,
	}
	if subscription.Customer != nil {
		out.CustomerID = subscription.Customer.ID
	}
	if subscription.CurrentPeriodEnd > 0 {
		end := time.Unix(subscription.CurrentPeriodEnd, 0).UTC()
		out.CurrentPeriodEnd = &end
	}
	if subscription.CancelAt > 0 {
		cancelAt := time.Unix(subscription.CancelAt, 0).UTC()
		out.CancelAt = &cancelAt
	}
	if subscription.Items != nil {
		for _, item := range subscription.Items.Data {
			if item != nil && item.Price != nil && item.Price.ID != "" {
				out.PriceID = item.Price.ID
				break
			}
		}
	}
	if out.Metadata == nil {
		out.Metadata = map[string]string{}
	}
	return out
}

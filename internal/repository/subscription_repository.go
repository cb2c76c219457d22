package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/models"

	"gorm.io/gorm"
)

// SubscriptionRepository 订阅数据访问接口
type SubscriptionRepository interface {
	GetByStripeSubscriptionID(stripeSubscriptionID string) (*models.Subscription, error)
	GetLatestByUser(userID string) (*models.Subscription, error)
	GetActiveByUser(userID string, now time.Time) (*models.Subscription, error)
	Create(subscription *models.Subscription) error
	Update(subscription *models.Subscription) error
	List(filter SubscriptionListFilter) ([]models.Subscription, int64, error)
	WithTx(tx *gorm.DB) *GormSubscriptionRepository
}

// GormSubscriptionRepository GORM 实现
type GormSubscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository 创建订阅仓库
func NewSubscriptionRepository(db *gorm.DB) *GormSubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSubscriptionRepository) WithTx(tx *gorm.DB) *GormSubscriptionRepository {
	if tx == nil {
		return r
	}
	return &GormSubscriptionRepository{db: tx}
}

// GetByStripeSubscriptionID 根据 Stripe 订阅 ID 获取
func (r *GormSubscriptionRepository) GetByStripeSubscriptionID(stripeSubscriptionID string) (*models.Subscription, error) {
	trimmed := strings.TrimSpace(stripeSubscriptionID)
	if trimmed == "" {
		return nil, nil
	}
	var subscription models.Subscription
	if err := r.db.Where("stripe_subscription_id = ?", trimmed).First(&subscription).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &subscription, nil
}

// GetLatestByUser 获取用户最新的订阅
func (r *GormSubscriptionRepository) GetLatestByUser(userID string) (*models.Subscription, error) {
	trimmed := strings.TrimSpace(userID)
	if trimmed == "" {
		return nil, nil
	}
	var subscription models.Subscription
	err := r.db.Where("user_id = ?", trimmed).
		Order("created_at desc").
		Order("id desc").
		First(&subscription).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &subscription, nil
}

// GetActiveByUser 获取用户当前有效的订阅（ACTIVE 且周期未结束）
func (r *GormSubscriptionRepository) GetActiveByUser(userID string, now time.Time) (*models.Subscription, error) {
	trimmed := strings.TrimSpace(userID)
	if trimmed == "" {
		return nil, nil
	}
	var subscription models.Subscription
	err := r.db.Where("user_id = ? AND status = ?", trimmed, models.SubscriptionStatusActive).
		Where("current_period_end IS NULL OR current_period_end > ?", now).
		Order("created_at desc").
		Order("id desc").
		First(&subscription).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &subscription, nil
}

// Create 创建订阅
func (r *GormSubscriptionRepository) Create(subscription *models.Subscription) error {
	return r.db.Create(subscription).Error
}

// Update 保存订阅
func (r *GormSubscriptionRepository) Update(subscription *models.Subscription) error {
	return r.db.Save(subscription).Error
}

// List 订阅列表
func (r *GormSubscriptionRepository) List(filter SubscriptionListFilter) ([]models.Subscription, int64, error) {
	query := r.db.Model(&models.Subscription{})
	if userID := strings.TrimSpace(filter.UserID); userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if planID := strings.TrimSpace(filter.PlanID); planID != "" {
		query = query.Where("plan_id = ?", planID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", strings.ToUpper(status))
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	return findPage[models.Subscription](query, filter.Page, filter.PageSize, "created_at desc", "id desc")
}

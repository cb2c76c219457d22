package repository

import (
	"strings"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/models"

	"gorm.io/gorm"
)

// PromoCodeUsageRepository 优惠码使用记录数据访问接口
type PromoCodeUsageRepository interface {
	Create(usage *models.PromoCodeUsage) error
	CountByCodeAndUser(promoCodeID uint, userID string) (int64, error)
	ExistsByCodeAndSubscription(promoCodeID uint, subscriptionID string) (bool, error)
	ListRecentByCode(promoCodeID uint, limit int) ([]models.PromoCodeUsage, error)
	StatsByCode(promoCodeID uint) (PromoCodeUsageStats, error)
	DeleteByCode(promoCodeID uint) error
	WithTx(tx *gorm.DB) *GormPromoCodeUsageRepository
}

// GormPromoCodeUsageRepository GORM 实现
type GormPromoCodeUsageRepository struct {
	db *gorm.DB
}

// NewPromoCodeUsageRepository 创建使用记录仓库
func NewPromoCodeUsageRepository(db *gorm.DB) *GormPromoCodeUsageRepository {
	return &GormPromoCodeUsageRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPromoCodeUsageRepository) WithTx(tx *gorm.DB) *GormPromoCodeUsageRepository {
	if tx == nil {
		return r
	}
	return &GormPromoCodeUsageRepository{db: tx}
}

// Create 创建使用记录
func (r *GormPromoCodeUsageRepository) Create(usage *models.PromoCodeUsage) error {
	return r.db.Create(usage).Error
}

// CountByCodeAndUser 统计用户对某优惠码的使用次数
func (r *GormPromoCodeUsageRepository) CountByCodeAndUser(promoCodeID uint, userID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.PromoCodeUsage{}).
		Where("promo_code_id = ? AND user_id = ?", promoCodeID, strings.TrimSpace(userID)).
		Count(&count).Error
	return count, err
}

// ExistsByCodeAndSubscription 判断订阅是否已登记过该优惠码
func (r *GormPromoCodeUsageRepository) ExistsByCodeAndSubscription(promoCodeID uint, subscriptionID string) (bool, error) {
	subscriptionID = strings.TrimSpace(subscriptionID)
	if subscriptionID == "" {
		return false, nil
	}
	var count int64
	err := r.db.Model(&models.PromoCodeUsage{}).
		Where("promo_code_id = ? AND subscription_id = ?", promoCodeID, subscriptionID).
		Count(&count).Error
	return count > 0, err
}

// ListRecentByCode 获取最近的使用记录
func (r *GormPromoCodeUsageRepository) ListRecentByCode(promoCodeID uint, limit int) ([]models.PromoCodeUsage, error) {
	if limit <= 0 {
		limit = 10
	}
	usages := make([]models.PromoCodeUsage, 0, limit)
	err := r.db.Where("promo_code_id = ?", promoCodeID).
		Order("created_at desc").
		Order("id desc").
		Limit(limit).
		Find(&usages).Error
	if err != nil {
		return nil, err
	}
	return usages, nil
}

// StatsByCode 汇总使用次数、累计优惠金额、独立用户数
func (r *GormPromoCodeUsageRepository) StatsByCode(promoCodeID uint) (PromoCodeUsageStats, error) {
	var stats PromoCodeUsageStats
	err := r.db.Model(&models.PromoCodeUsage{}).
		Select("COUNT(*) AS total_uses, COALESCE(SUM(discount_amount), 0) AS total_discount_given, COUNT(DISTINCT user_id) AS unique_users").
		Where("promo_code_id = ?", promoCodeID).
		Scan(&stats).Error
	return stats, err
}

// DeleteByCode 删除优惠码下的全部使用记录
func (r *GormPromoCodeUsageRepository) DeleteByCode(promoCodeID uint) error {
	return r.db.Where("promo_code_id = ?", promoCodeID).Delete(&models.PromoCodeUsage{}).Error
}

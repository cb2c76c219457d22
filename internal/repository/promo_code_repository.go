package repository

import (
	"errors"
	"strings"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PromoCodeRepository 优惠码数据访问接口
type PromoCodeRepository interface {
	GetByID(id uint) (*models.PromoCode, error)
	GetByIDForUpdate(id uint) (*models.PromoCode, error)
	GetByCode(code string) (*models.PromoCode, error)
	ListActive(codes []string) ([]models.PromoCode, error)
	List(filter PromoCodeListFilter) ([]models.PromoCode, int64, error)
	Create(promo *models.PromoCode) error
	Update(promo *models.PromoCode) error
	UpdateStripeCouponID(id uint, couponID string) error
	Delete(id uint) error
	IncrementCurrentUses(id uint) (bool, error)
	WithTx(tx *gorm.DB) *GormPromoCodeRepository
}

// GormPromoCodeRepository GORM 实现
type GormPromoCodeRepository struct {
	db *gorm.DB
}

// NewPromoCodeRepository 创建优惠码仓库
func NewPromoCodeRepository(db *gorm.DB) *GormPromoCodeRepository {
	return &GormPromoCodeRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPromoCodeRepository) WithTx(tx *gorm.DB) *GormPromoCodeRepository {
	if tx == nil {
		return r
	}
	return &GormPromoCodeRepository{db: tx}
}

// GetByID 根据 ID 获取优惠码
func (r *GormPromoCodeRepository) GetByID(id uint) (*models.PromoCode, error) {
	if id == 0 {
		return nil, nil
	}
	var promo models.PromoCode
	if err := r.db.First(&promo, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &promo, nil
}

// GetByIDForUpdate 加锁获取优惠码（sqlite 下忽略行锁）
func (r *GormPromoCodeRepository) GetByIDForUpdate(id uint) (*models.PromoCode, error) {
	if id == 0 {
		return nil, nil
	}
	var promo models.PromoCode
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&promo, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &promo, nil
}

// GetByCode 根据优惠码获取（大小写不敏感）
func (r *GormPromoCodeRepository) GetByCode(code string) (*models.PromoCode, error) {
	normalized := models.NormalizePromoCode(code)
	if normalized == "" {
		return nil, nil
	}
	var promo models.PromoCode
	if err := r.db.Where("code = ?", normalized).First(&promo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &promo, nil
}

// ListActive 获取启用中的优惠码，codes 非空时仅返回指定优惠码
func (r *GormPromoCodeRepository) ListActive(codes []string) ([]models.PromoCode, error) {
	query := r.db.Model(&models.PromoCode{}).Where("is_active = ?", true)
	if len(codes) > 0 {
		normalized := make([]string, 0, len(codes))
		for _, code := range codes {
			if item := models.NormalizePromoCode(code); item != "" {
				normalized = append(normalized, item)
			}
		}
		if len(normalized) == 0 {
			return []models.PromoCode{}, nil
		}
		query = query.Where("code IN ?", normalized)
	}
	promos := make([]models.PromoCode, 0)
	if err := query.Order("id asc").Find(&promos).Error; err != nil {
		return nil, err
	}
	return promos, nil
}

// List 获取优惠码列表（按创建时间倒序）
func (r *GormPromoCodeRepository) List(filter PromoCodeListFilter) ([]models.PromoCode, int64, error) {
	query := r.db.Model(&models.PromoCode{})
	if code := models.NormalizePromoCode(filter.Code); code != "" {
		query = query.Where("code = ?", code)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		condition, argCount := buildLikeCondition(r.db, "code", "description")
		like := "%" + escapeLike(search) + "%"
		query = query.Where(condition, repeatLikeArgs(like, argCount)...)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	return findPage[models.PromoCode](query, filter.Page, filter.PageSize, "created_at desc", "id desc")
}

// Create 创建优惠码
func (r *GormPromoCodeRepository) Create(promo *models.PromoCode) error {
	return r.db.Create(promo).Error
}

// Update 保存可编辑字段，不覆盖 current_uses 与 stripe_coupon_id
func (r *GormPromoCodeRepository) Update(promo *models.PromoCode) error {
	return r.db.Model(promo).
		Select("is_active", "max_uses", "max_uses_per_user", "valid_until", "description", "eligible_plans", "updated_at").
		Updates(promo).Error
}

// UpdateStripeCouponID 回写 Stripe 优惠券 ID
func (r *GormPromoCodeRepository) UpdateStripeCouponID(id uint, couponID string) error {
	var value interface{}
	if trimmed := strings.TrimSpace(couponID); trimmed != "" {
		value = trimmed
	}
	return r.db.Model(&models.PromoCode{}).Where("id = ?", id).Update("stripe_coupon_id", value).Error
}

// Delete 删除优惠码
func (r *GormPromoCodeRepository) Delete(id uint) error {
	return r.db.Delete(&models.PromoCode{}, id).Error
}

// IncrementCurrentUses 条件递增使用次数
// 仅在未达到总次数上限时递增，返回是否成功
func (r *GormPromoCodeRepository) IncrementCurrentUses(id uint) (bool, error) {
	result := r.db.Model(&models.PromoCode{}).
		Where("id = ?", id).
		Where("max_uses IS NULL OR current_uses < max_uses").
		UpdateColumn("current_uses", gorm.Expr("current_uses + ?", 1))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/MightyWarner19/grainlly/models"
)

type SubscriberRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Subscriber, error)
	Create(ctx context.Context, s *models.Subscriber) error
	Save(ctx context.Context, s *models.Subscriber) error
	FindAll(ctx context.Context, page, limit int, activeOnly bool) ([]models.Subscriber, int64, error)
}

type GormSubscriberRepository struct {
	db *gorm.DB
}

func NewGormSubscriberRepository(db *gorm.DB) *GormSubscriberRepository {
	return &GormSubscriberRepository{db: db}
}

func (r *GormSubscriberRepository) FindByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	var s models.Subscriber
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&s).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *GormSubscriberRepository) Create(ctx context.Context, s *models.Subscriber) error {
	return translate(r.db.WithContext(ctx).Create(s).Error)
}

func (r *GormSubscriberRepository) Save(ctx context.Context, s *models.Subscriber) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *GormSubscriberRepository) FindAll(ctx context.Context, page, limit int, activeOnly bool) ([]models.Subscriber, int64, error) {
	page, limit = normalizePage(page, limit)
	scope := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Subscriber{})
		if activeOnly {
			q = q.Where("is_active = ?", true)
		}
		return q
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	subs := []models.Subscriber{}
	if err := scope().Order("subscribed_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&subs).Error; err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}

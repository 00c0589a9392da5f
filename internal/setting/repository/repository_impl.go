package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/possaas/internal/setting/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) LatestGeneralSetting(ctx context.Context) (*domain.GeneralSetting, error) {
	var row domain.GeneralSetting
	err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrGeneralSettingMissing
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) LatestMailSetting(ctx context.Context) (*domain.MailSetting, error) {
	var row domain.MailSetting
	err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrMailSettingMissing
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

package repository

import (
	"ConectaYa/internal/model"
	"context"

	"gorm.io/gorm"
)

type ServiceRepo interface {
	GetByID(ctx context.Context, serviceID uint64) (*model.Service, error)
}

type serviceRepoImpl struct {
	db *gorm.DB
}

func NewServiceRepo(db *gorm.DB) ServiceRepo {
	return &serviceRepoImpl{db: db}
}

func (s *serviceRepoImpl) GetByID(ctx context.Context, serviceID uint64) (*model.Service, error) {
	var svc model.Service
	err := s.db.WithContext(ctx).First(&svc, serviceID).Error
	return &svc, err
}

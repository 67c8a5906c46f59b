package repository

import (
	"ConectaYa/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

type UserProfileRepo interface {
	GetByUserID(ctx context.Context, userID uint64) (*model.UserProfile, error)
	// AddEarnings 给服务商累计收入原子加账，档案不存在则先建档
	AddEarnings(ctx context.Context, userID uint64, amount float64) error
	TotalEarnings(ctx context.Context) (float64, error)
}

type userProfileRepoImpl struct {
	db *gorm.DB
}

func NewUserProfileRepo(db *gorm.DB) UserProfileRepo {
	return &userProfileRepoImpl{db: db}
}

func (s *userProfileRepoImpl) GetByUserID(ctx context.Context, userID uint64) (*model.UserProfile, error) {
	var profile model.UserProfile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	return &profile, err
}

func (s *userProfileRepoImpl) AddEarnings(ctx context.Context, userID uint64, amount float64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var profile model.UserProfile
		err := tx.Where("user_id = ?", userID).First(&profile).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err = tx.Create(&model.UserProfile{UserID: userID}).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		return tx.Model(&model.UserProfile{}).
			Where("user_id = ?", userID).
			Updates(map[string]interface{}{
				"total_earnings":  gorm.Expr("total_earnings + ?", amount),
				"completed_count": gorm.Expr("completed_count + 1"),
			}).Error
	})
}

func (s *userProfileRepoImpl) TotalEarnings(ctx context.Context) (float64, error) {
	var total float64
	err := s.db.WithContext(ctx).Model(&model.UserProfile{}).
		Select("COALESCE(SUM(total_earnings), 0)").Scan(&total).Error
	return total, err
}

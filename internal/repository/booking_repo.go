package repository

import (
	"ConectaYa/internal/model"
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookingStats 按角色聚合的预约统计
type BookingStats struct {
	Total      int64   `json:"total"`
	Pending    int64   `json:"pending"`
	Completed  int64   `json:"completed"`
	Canceled   int64   `json:"canceled"`
	Rejected   int64   `json:"rejected"`
	MonthlySum float64 `json:"monthlySum"`
}

type BookingRepo interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, bookingID uint64) (*model.Booking, error)
	ListByUser(ctx context.Context, userID uint64, role string, status model.BookingStatus) ([]*model.Booking, error)

	// Transition 在行锁内执行一次状态迁移：mutate 校验并修改 booking，
	// 返回错误则整体回滚。同一 booking 的并发迁移被串行化。
	Transition(ctx context.Context, bookingID uint64, mutate func(b *model.Booking) error) (*model.Booking, error)

	StatsByCustomer(ctx context.Context, userID uint64, monthStart time.Time) (*BookingStats, error)
	StatsByProvider(ctx context.Context, userID uint64, monthStart time.Time) (*BookingStats, error)
	CountByStatusSince(ctx context.Context, since time.Time) (map[model.BookingStatus]int64, error)
}

type bookingRepoImpl struct {
	db *gorm.DB
}

func NewBookingRepo(db *gorm.DB) BookingRepo {
	return &bookingRepoImpl{db: db}
}

func (s *bookingRepoImpl) Create(ctx context.Context, booking *model.Booking) error {
	return s.db.WithContext(ctx).Create(booking).Error
}

func (s *bookingRepoImpl) GetByID(ctx context.Context, bookingID uint64) (*model.Booking, error) {
	var booking model.Booking
	err := s.db.WithContext(ctx).First(&booking, bookingID).Error
	return &booking, err
}

// ListByUser 按身份过滤：customer / provider / all，可叠加状态过滤
func (s *bookingRepoImpl) ListByUser(ctx context.Context, userID uint64, role string, status model.BookingStatus) ([]*model.Booking, error) {
	query := s.db.WithContext(ctx).Model(&model.Booking{})

	switch role {
	case "customer":
		query = query.Where("customer_id = ?", userID)
	case "provider":
		query = query.Where("provider_id = ?", userID)
	default:
		query = query.Where("customer_id = ? OR provider_id = ?", userID, userID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var bookings []*model.Booking
	err := query.Order("created_at DESC").Find(&bookings).Error
	return bookings, err
}

// Transition 利用 SELECT ... FOR UPDATE 把同一 booking 的状态迁移串行化
func (s *bookingRepoImpl) Transition(ctx context.Context, bookingID uint64, mutate func(b *model.Booking) error) (*model.Booking, error) {
	var booking model.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&booking, bookingID).Error; err != nil {
			return err
		}
		if err := mutate(&booking); err != nil {
			return err
		}
		return tx.Save(&booking).Error
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (s *bookingRepoImpl) StatsByCustomer(ctx context.Context, userID uint64, monthStart time.Time) (*BookingStats, error) {
	return s.stats(ctx, "customer_id", userID, monthStart)
}

func (s *bookingRepoImpl) StatsByProvider(ctx context.Context, userID uint64, monthStart time.Time) (*BookingStats, error) {
	return s.stats(ctx, "provider_id", userID, monthStart)
}

func (s *bookingRepoImpl) stats(ctx context.Context, column string, userID uint64, monthStart time.Time) (*BookingStats, error) {
	stats := &BookingStats{}
	base := s.db.WithContext(ctx).Model(&model.Booking{}).Where(column+" = ?", userID)

	type row struct {
		Status model.BookingStatus
		Cnt    int64
	}
	var rows []row
	if err := base.Session(&gorm.Session{}).
		Select("status, COUNT(*) AS cnt").Group("status").Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "booking stats group by status")
	}
	for _, r := range rows {
		stats.Total += r.Cnt
		switch r.Status {
		case model.BookingPending:
			stats.Pending = r.Cnt
		case model.BookingCompleted:
			stats.Completed = r.Cnt
		case model.BookingCanceledByCustomer, model.BookingCanceledByProvider:
			stats.Canceled += r.Cnt
		case model.BookingRejected:
			stats.Rejected = r.Cnt
		}
	}

	// 本月已完成订单金额：优先价格快照，缺失时回退服务当前价
	err := s.db.WithContext(ctx).Model(&model.Booking{}).
		Select("COALESCE(SUM(COALESCE(bookings.service_price, services.price)), 0)").
		Joins("JOIN services ON services.id = bookings.service_id").
		Where("bookings."+column+" = ? AND bookings.status = ? AND bookings.created_at >= ?",
			userID, model.BookingCompleted, monthStart).
		Scan(&stats.MonthlySum).Error
	if err != nil {
		return nil, errors.Wrap(err, "booking stats monthly sum")
	}
	return stats, nil
}

// CountByStatusSince 供日报 Job 使用的全局状态分布
func (s *bookingRepoImpl) CountByStatusSince(ctx context.Context, since time.Time) (map[model.BookingStatus]int64, error) {
	type row struct {
		Status model.BookingStatus
		Cnt    int64
	}
	var rows []row
	err := s.db.WithContext(ctx).Model(&model.Booking{}).
		Select("status, COUNT(*) AS cnt").
		Where("created_at >= ?", since).
		Group("status").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	res := make(map[model.BookingStatus]int64, len(rows))
	for _, r := range rows {
		res[r.Status] = r.Cnt
	}
	return res, nil
}

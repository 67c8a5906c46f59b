package job

import (
	"ConectaYa/internal/pkg/consts"
	"ConectaYa/internal/pkg/logger"
	"ConectaYa/internal/pkg/redis"
	"ConectaYa/internal/repository"
	"context"
	log "log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// BookingStatsJob 每日预约统计汇总任务
// 将前一天各状态的预约数量与累计结算额落到 Redis Hash, 供运营面板读取
type BookingStatsJob struct {
	bookingRepo repository.BookingRepo
	profileRepo repository.UserProfileRepo
}

func NewBookingStatsJob(bookingRepo repository.BookingRepo, profileRepo repository.UserProfileRepo) *BookingStatsJob {
	return &BookingStatsJob{
		bookingRepo: bookingRepo,
		profileRepo: profileRepo,
	}
}

func (s *BookingStatsJob) Run() {
	traceID := "job-stats-" + uuid.NewString()
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, traceID)

	// 多实例部署下仅一个实例执行汇总
	lock, err := redis.TryLock(ctx, consts.BookingStatsLockKey, traceID, time.Minute*5, 3)
	if err != nil || !lock {
		log.WarnContext(ctx, "skip stats job, lock not acquired", "err", err)
		return
	}
	defer redis.UnLock(ctx, consts.BookingStatsLockKey, traceID)

	since := time.Now().AddDate(0, 0, -1)
	day := since.Format("2006-01-02")
	key := consts.BookingStatsDayKey + day

	counts, err := s.bookingRepo.CountByStatusSince(ctx, since)
	if err != nil {
		log.ErrorContext(ctx, "count bookings by status error", "err", err)
		return
	}
	for status, count := range counts {
		if err = redis.HSet(ctx, key, string(status), strconv.FormatInt(count, 10)); err != nil {
			log.ErrorContext(ctx, "write booking stats hash error", "status", status, "err", err)
		}
	}

	total, err := s.profileRepo.TotalEarnings(ctx)
	if err != nil {
		log.ErrorContext(ctx, "sum total earnings error", "err", err)
		return
	}
	if err = redis.HSet(ctx, key, "total_earnings", strconv.FormatFloat(total, 'f', 2, 64)); err != nil {
		log.ErrorContext(ctx, "write earnings stat error", "err", err)
	}

	log.InfoContext(ctx, "BookingStatsJob finished", "day", day, "statuses", len(counts))
}

package consts

const (
	IMUserKey           = "im:user:"
	AuthBlacklistKey    = "auth:blacklist:"
	BookingStatsDayKey  = "booking:stats:day:"
	BookingStatsLockKey = "lock:booking:stats"
)

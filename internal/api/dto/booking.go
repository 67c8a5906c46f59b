package dto

import "time"

// CreateBookingReq 创建预约请求体
type CreateBookingReq struct {
	ServiceID       uint64  `json:"service_id" binding:"required"`
	BookingDate     *string `json:"booking_date" binding:"omitempty" validate:"omitempty,datetime=2006-01-02"`
	BookingTime     string  `json:"booking_time" validate:"max=32"`
	BookingNotes    string  `json:"booking_notes" validate:"max=1000"`
	CustomerAddress string  `json:"customer_address" validate:"max=255"`
}

// CancelBookingReq 取消预约请求体
type CancelBookingReq struct {
	Reason string `json:"reason" binding:"required" validate:"min=1,max=500"`
}

// RejectBookingReq 拒绝预约请求体，理由可不填
type RejectBookingReq struct {
	Reason string `json:"reason" validate:"max=500"`
}

// BookingDTO 预约明细响应
type BookingDTO struct {
	ID                 uint64     `json:"id"`
	ServiceID          uint64     `json:"service_id"`
	CustomerID         uint64     `json:"customer_id"`
	ProviderID         uint64     `json:"provider_id"`
	Status             string     `json:"status"`
	BookingDate        *time.Time `json:"booking_date,omitempty"`
	BookingTime        string     `json:"booking_time,omitempty"`
	BookingNotes       string     `json:"booking_notes,omitempty"`
	CustomerAddress    string     `json:"customer_address,omitempty"`
	ServicePrice       *float64   `json:"service_price,omitempty"`
	AcceptedAt         *time.Time `json:"accepted_at,omitempty"`
	InProgressAt       *time.Time `json:"in_progress_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CanceledAt         *time.Time `json:"canceled_at,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// BookingStatsDTO 预约统计响应
type BookingStatsDTO struct {
	Total       int64   `json:"total"`
	Pending     int64   `json:"pending"`
	Completed   int64   `json:"completed"`
	Canceled    int64   `json:"canceled"`
	Rejected    int64   `json:"rejected"`
	MonthlySum  float64 `json:"monthly_sum"`
	SuccessRate float64 `json:"success_rate"`
}

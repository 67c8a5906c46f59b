package model

import "time"

// BookingStatus 预约状态（封闭枚举）
type BookingStatus string

const (
	BookingPending            BookingStatus = "pending"
	BookingNegotiating        BookingStatus = "negotiating"
	BookingAccepted           BookingStatus = "accepted"
	BookingInProgress         BookingStatus = "in_progress"
	BookingCompleted          BookingStatus = "completed"
	BookingCanceledByCustomer BookingStatus = "canceled_by_customer"
	BookingCanceledByProvider BookingStatus = "canceled_by_provider"
	BookingRejected           BookingStatus = "rejected"
)

// BookingAction 预约动作标记，落库到 booking_action 类型消息中
type BookingAction string

const (
	ActionAccepted   BookingAction = "accepted"
	ActionRejected   BookingAction = "rejected"
	ActionInProgress BookingAction = "in_progress"
	ActionCompleted  BookingAction = "completed"
	ActionCanceled   BookingAction = "canceled"
)

// bookingTransitions 状态迁移表：每个状态只允许沿表内的边前进，终态无出边。
// provider 在 pending 态只能 reject 不能 cancel，in_progress 态只有 provider
// 可以取消，这些差异编码在边本身，动作入口只需按表校验。
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending: {
		BookingAccepted, BookingRejected, BookingCanceledByCustomer,
	},
	BookingNegotiating: {
		BookingAccepted, BookingRejected, BookingCanceledByCustomer, BookingCanceledByProvider,
	},
	BookingAccepted: {
		BookingInProgress, BookingCompleted, BookingCanceledByCustomer, BookingCanceledByProvider,
	},
	BookingInProgress: {
		BookingCompleted, BookingCanceledByProvider,
	},
}

// CanTransitionTo 校验一次状态迁移是否合法
func (s BookingStatus) CanTransitionTo(to BookingStatus) bool {
	for _, next := range bookingTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal 终态判定：终态后状态永不再变
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case BookingCompleted, BookingCanceledByCustomer, BookingCanceledByProvider, BookingRejected:
		return true
	}
	return false
}

// Booking 预约主表：客户对服务商某个服务的一次请求，按状态机推进，永不物理删除
type Booking struct {
	ID         uint64        `gorm:"primaryKey;autoIncrement" json:"id"`
	ServiceID  uint64        `gorm:"not null;index" json:"serviceId"`
	CustomerID uint64        `gorm:"not null;index:idx_customer_status" json:"customerId"`
	ProviderID uint64        `gorm:"not null;index:idx_provider_status" json:"providerId"`
	Status     BookingStatus `gorm:"type:varchar(30);not null;default:'pending';index:idx_customer_status;index:idx_provider_status" json:"status"`

	// 预约明细
	BookingDate     *time.Time `gorm:"type:date" json:"bookingDate"`
	BookingTime     string     `gorm:"type:varchar(20)" json:"bookingTime"`
	BookingNotes    string     `gorm:"type:text" json:"bookingNotes"`
	CustomerAddress string     `gorm:"type:varchar(255)" json:"customerAddress"`

	// 下单时的价格快照，完成结算时优先使用快照而非服务当前价
	ServicePrice *float64 `gorm:"type:decimal(10,2)" json:"servicePrice"`

	// 各状态时间戳
	AcceptedAt         *time.Time `json:"acceptedAt"`
	InProgressAt       *time.Time `json:"inProgressAt"`
	CompletedAt        *time.Time `json:"completedAt"`
	CanceledAt         *time.Time `json:"canceledAt"`
	CancellationReason string     `gorm:"type:text" json:"cancellationReason"`

	CreatedAt time.Time `gorm:"index:,sort:desc" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Booking) TableName() string { return "bookings" }

// IsParticipant 判断用户是否是该预约的当事人
func (b *Booking) IsParticipant(userID uint64) bool {
	return userID == b.CustomerID || userID == b.ProviderID
}

// CancelTarget 按取消发起方得到对应的终态
func (b *Booking) CancelTarget(callerID uint64) BookingStatus {
	if callerID == b.CustomerID {
		return BookingCanceledByCustomer
	}
	return BookingCanceledByProvider
}

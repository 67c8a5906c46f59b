package model

import "time"

// UserProfile 业务侧的用户档案。账号主体在身份平台，这里只沉淀
// 交易口径的累计数据：服务商累计收入与完成单数。
type UserProfile struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         uint64    `gorm:"uniqueIndex;not null" json:"userId"`
	TotalEarnings  float64   `gorm:"type:decimal(12,2);not null;default:0" json:"totalEarnings"`
	CompletedCount uint64    `gorm:"not null;default:0" json:"completedCount"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (UserProfile) TableName() string { return "user_profiles" }

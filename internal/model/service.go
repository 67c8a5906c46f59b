package model

import "time"

// ServiceStatus 服务上架状态
type ServiceStatus string

const (
	ServicePublished ServiceStatus = "published"
	ServicePaused    ServiceStatus = "paused"
	ServiceRemoved   ServiceStatus = "removed"
)

// Service 服务商发布的服务条目，预约的标的物。
// 列表检索、分类等由身份平台侧维护，这里只保留预约主链路需要的字段。
type Service struct {
	ID         uint64        `gorm:"primaryKey;autoIncrement" json:"id"`
	ProviderID uint64        `gorm:"not null;index" json:"providerId"`
	Title      string        `gorm:"type:varchar(120);not null" json:"title"`
	Price      float64       `gorm:"type:decimal(10,2);not null;default:0" json:"price"`
	Status     ServiceStatus `gorm:"type:varchar(20);not null;default:'published'" json:"status"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

func (Service) TableName() string { return "services" }

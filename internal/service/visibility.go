package service

import "time"

// MessageVisible 单成员视角的消息可见性判定：
// 软删期间整库不可见；清空历史后只看得见水位线之后的消息。
func MessageVisible(msgCreatedAt time.Time, clearedAt, deletedAt *time.Time) bool {
	if deletedAt != nil {
		return false
	}
	if clearedAt != nil && !msgCreatedAt.After(*clearedAt) {
		return false
	}
	return true
}

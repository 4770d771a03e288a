package model

import "time"

// WatchEvent 观看历史事件，只追加不截断，仅供分析使用
type WatchEvent struct {
	BaseModel
	UserID    uint      `gorm:"type:bigint unsigned;not null;index:idx_user_watched_at" json:"userId"`
	ContentID uint      `gorm:"type:bigint unsigned;not null" json:"contentId"`
	WatchedAt time.Time `gorm:"not null;index:idx_user_watched_at" json:"watchedAt"`
}

func (WatchEvent) TableName() string {
	return "watch_events"
}

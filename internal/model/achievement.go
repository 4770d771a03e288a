package model

import "time"

// Achievement 用户已解锁的成就记录，同一用户同一 Key 至多一条
type Achievement struct {
	BaseModel
	UserID     uint      `gorm:"index;type:bigint unsigned;uniqueIndex:idx_user_achievement" json:"userId"`
	Key        string    `gorm:"column:achievement_key;size:50;not null;uniqueIndex:idx_user_achievement" json:"key"`
	Title      string    `gorm:"size:100;not null" json:"title"`
	XPAwarded  int       `gorm:"default:0" json:"xpAwarded"`
	UnlockedAt time.Time `gorm:"not null" json:"unlockedAt"`
}

func (Achievement) TableName() string {
	return "achievements"
}

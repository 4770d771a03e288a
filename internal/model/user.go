package model

import (
	"time"
)

type UserRole string

const (
	Student UserRole = "student"
	Teacher UserRole = "teacher"
	Admin   UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name     string   `gorm:"size:100;not null" json:"Name"`
	Email    string   `gorm:"size:100;unique;not null" json:"Email"`
	Password string   `gorm:"size:100;not null" json:"-"`
	Role     UserRole `gorm:"size:20;default:'student'" json:"Role"`

	// 游戏化状态：XP 为当前等级内的经验值，升级时扣除阈值归零重新累计
	XP             int        `gorm:"default:0" json:"XP"`
	Level          int        `gorm:"default:1" json:"Level"`
	Streak         int        `gorm:"default:0" json:"Streak"`     // 连续学习天数
	BestStreak     int        `gorm:"default:0" json:"BestStreak"` // 历史最长连续天数
	LastStreakDate *time.Time `json:"LastStreakDate,omitempty"`

	Avatar    string    `gorm:"size:255" json:"avatar"`
	Disabled  bool      `gorm:"default:false" json:"Disabled"`
	LastLogin time.Time `json:"LastLogin"`
}

func (User) TableName() string {
	return "users"
}

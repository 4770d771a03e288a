package model

import "time"

// Enrollment 用户与课程的选课关系，(user_id, course_id) 唯一
type Enrollment struct {
	BaseModel
	UserID            uint         `gorm:"type:bigint unsigned;not null;uniqueIndex:idx_user_course" json:"userId"`
	CourseID          uint         `gorm:"type:bigint unsigned;not null;uniqueIndex:idx_user_course" json:"courseId"`
	PurchaseDate      time.Time    `gorm:"not null" json:"purchaseDate"`
	CompletedLectures LectureIDSet `gorm:"serializer:json;type:text" json:"completedLectures"`
	IsCompleted       bool         `gorm:"default:false" json:"isCompleted"`
	CompletionDate    *time.Time   `json:"completionDate,omitempty"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

// LectureIDSet 已完成讲 ID 集合，插入顺序无关紧要
type LectureIDSet []uint

func (s LectureIDSet) Contains(id uint) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// Add 返回加入 id 后的集合，已存在则原样返回
func (s LectureIDSet) Add(id uint) LectureIDSet {
	if s.Contains(id) {
		return s
	}
	return append(s, id)
}

// Started 是否已开始学习（至少完成一讲）
func (e *Enrollment) Started() bool {
	return len(e.CompletedLectures) > 0
}

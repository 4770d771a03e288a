package repository

import (
	"coursemarket_backend/internal/model"

	"gorm.io/gorm"
)

type WatchEventRepository struct {
	DB *gorm.DB
}

func NewWatchEventRepository(db *gorm.DB) *WatchEventRepository {
	return &WatchEventRepository{DB: db}
}

func (r *WatchEventRepository) FindByUserID(userID uint) ([]model.WatchEvent, error) {
	var events []model.WatchEvent
	err := r.DB.Where("user_id = ?", userID).Order("watched_at ASC").Find(&events).Error
	return events, err
}

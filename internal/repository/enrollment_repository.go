package repository

import (
	"coursemarket_backend/internal/model"

	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

func (r *EnrollmentRepository) FindByUserAndCourse(userID, courseID uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *EnrollmentRepository) FindByUserID(userID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.DB.Where("user_id = ?", userID).Order("purchase_date DESC").Find(&enrollments).Error
	return enrollments, err
}

func (r *EnrollmentRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Enrollment{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *EnrollmentRepository) CountCompletedByUserID(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Enrollment{}).
		Where("user_id = ? AND is_completed = ?", userID, true).
		Count(&count).Error
	return count, err
}

// CountByCourseID 讲师端课程报名人数
func (r *EnrollmentRepository) CountByCourseID(courseID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Enrollment{}).Where("course_id = ?", courseID).Count(&count).Error
	return count, err
}

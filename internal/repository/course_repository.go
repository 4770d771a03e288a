package repository

import (
	"coursemarket_backend/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) Create(course *model.Course) error {
	return r.DB.Create(course).Error
}

// FindByID 加载课程及其章节/讲，按 position 排序
func (r *CourseRepository) FindByID(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("sections.position ASC")
		}).
		Preload("Sections.Lectures", func(db *gorm.DB) *gorm.DB {
			return db.Order("lectures.position ASC")
		}).
		First(&course, id).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) FindAll(page, limit int, publishedOnly bool) ([]model.Course, int64, error) {
	var courses []model.Course
	var total int64

	query := r.DB.Model(&model.Course{})
	if publishedOnly {
		query = query.Where("is_published = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Offset(offset).Limit(limit).Order("created_at DESC").Find(&courses).Error
	return courses, total, err
}

func (r *CourseRepository) FindByInstructor(instructorID uint) ([]model.Course, error) {
	var courses []model.Course
	err := r.DB.Where("instructor_id = ?", instructorID).Order("created_at DESC").Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) Update(course *model.Course) error {
	return r.DB.Session(&gorm.Session{FullSaveAssociations: true}).Save(course).Error
}

func (r *CourseRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Course{}, id).Error
}

package service

import (
	"fmt"

	"coursemarket_backend/internal/model"
	"coursemarket_backend/internal/repository"
	"coursemarket_backend/internal/util"

	"gorm.io/gorm"
)

type CourseService struct {
	CourseRepo     *repository.CourseRepository
	EnrollmentRepo *repository.EnrollmentRepository
}

func NewCourseService(courseRepo *repository.CourseRepository, enrollmentRepo *repository.EnrollmentRepository) *CourseService {
	return &CourseService{CourseRepo: courseRepo, EnrollmentRepo: enrollmentRepo}
}

type LectureRequest struct {
	Title     string `json:"title" binding:"required"`
	Duration  string `json:"duration" binding:"required"`
	VideoURL  string `json:"videoUrl"`
	IsPreview bool   `json:"isPreview"`
}

type SectionRequest struct {
	Title    string           `json:"title" binding:"required"`
	Lectures []LectureRequest `json:"lectures"`
}

type CourseRequest struct {
	Title       string           `json:"title" binding:"required"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Price       float64          `json:"price"`
	Thumbnail   string           `json:"thumbnail"`
	Sections    []SectionRequest `json:"sections"`
}

// CreateCourse 创建课程及其嵌套章节/讲，讲时长格式校验失败时整体拒绝
func (s *CourseService) CreateCourse(instructorID uint, req CourseRequest) (*model.Course, error) {
	sections, err := buildSections(req.Sections)
	if err != nil {
		return nil, err
	}

	course := &model.Course{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Price:        req.Price,
		Thumbnail:    req.Thumbnail,
		InstructorID: instructorID,
		Sections:     sections,
	}

	if err := s.CourseRepo.Create(course); err != nil {
		return nil, err
	}
	return course, nil
}

func buildSections(reqs []SectionRequest) ([]model.Section, error) {
	sections := make([]model.Section, 0, len(reqs))
	for i, sr := range reqs {
		lectures := make([]model.Lecture, 0, len(sr.Lectures))
		for j, lr := range sr.Lectures {
			if _, err := util.ParseLectureDuration(lr.Duration); err != nil {
				field := fmt.Sprintf("sections[%d].lectures[%d].duration", i, j)
				return nil, util.NewValidationError(field, err.Error())
			}
			lectures = append(lectures, model.Lecture{
				Title:     lr.Title,
				Duration:  lr.Duration,
				VideoURL:  lr.VideoURL,
				IsPreview: lr.IsPreview,
				Position:  j,
			})
		}
		sections = append(sections, model.Section{
			Title:    sr.Title,
			Position: i,
			Lectures: lectures,
		})
	}
	return sections, nil
}

// CourseDetail 课程详情及派生总量（总讲数在章节变更后重新计算，不落库）
type CourseDetail struct {
	*model.Course
	TotalLectures    int `json:"totalLectures"`
	TotalDurationSec int `json:"totalDurationSec"`
}

func (s *CourseService) GetCourse(id uint) (*CourseDetail, error) {
	course, err := s.CourseRepo.FindByID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	return newCourseDetail(course), nil
}

func newCourseDetail(course *model.Course) *CourseDetail {
	totalSec := 0
	for _, section := range course.Sections {
		for _, l := range section.Lectures {
			if seconds, err := util.ParseLectureDuration(l.Duration); err == nil {
				totalSec += seconds
			}
		}
	}
	return &CourseDetail{
		Course:           course,
		TotalLectures:    course.TotalLectures(),
		TotalDurationSec: totalSec,
	}
}

func (s *CourseService) ListCourses(page, limit int, publishedOnly bool) ([]model.Course, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.CourseRepo.FindAll(page, limit, publishedOnly)
}

// UpdateCourse 替换课程元信息与章节结构，仅限课程讲师本人
func (s *CourseService) UpdateCourse(courseID, instructorID uint, req CourseRequest) (*model.Course, error) {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	if course.InstructorID != instructorID {
		return nil, util.ErrPermissionDenied
	}

	sections, err := buildSections(req.Sections)
	if err != nil {
		return nil, err
	}

	// 旧章节整体替换；软删除不触发级联，讲要随章节一并删除
	var oldSectionIDs []uint
	if err := s.CourseRepo.DB.Model(&model.Section{}).
		Where("course_id = ?", courseID).
		Pluck("id", &oldSectionIDs).Error; err != nil {
		return nil, err
	}
	if len(oldSectionIDs) > 0 {
		if err := s.CourseRepo.DB.Where("section_id IN ?", oldSectionIDs).Delete(&model.Lecture{}).Error; err != nil {
			return nil, err
		}
	}
	if err := s.CourseRepo.DB.Where("course_id = ?", courseID).Delete(&model.Section{}).Error; err != nil {
		return nil, err
	}

	course.Title = req.Title
	course.Description = req.Description
	course.Category = req.Category
	course.Price = req.Price
	course.Thumbnail = req.Thumbnail
	course.Sections = sections

	if err := s.CourseRepo.Update(course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) PublishCourse(courseID, instructorID uint) error {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return util.ErrCourseNotFound
		}
		return err
	}
	if course.InstructorID != instructorID {
		return util.ErrPermissionDenied
	}

	course.IsPublished = true
	return s.CourseRepo.DB.Model(course).Update("is_published", true).Error
}

type InstructorCourseStats struct {
	Course      model.Course `json:"course"`
	Enrollments int64        `json:"enrollments"`
}

// GetInstructorDashboard 讲师名下课程及报名人数
func (s *CourseService) GetInstructorDashboard(instructorID uint) ([]InstructorCourseStats, error) {
	courses, err := s.CourseRepo.FindByInstructor(instructorID)
	if err != nil {
		return nil, err
	}

	stats := make([]InstructorCourseStats, 0, len(courses))
	for _, c := range courses {
		count, err := s.EnrollmentRepo.CountByCourseID(c.ID)
		if err != nil {
			return nil, err
		}
		stats = append(stats, InstructorCourseStats{Course: c, Enrollments: count})
	}
	return stats, nil
}

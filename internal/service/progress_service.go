package service

import (
	"time"

	"coursemarket_backend/internal/model"
	"coursemarket_backend/internal/repository"
	"coursemarket_backend/internal/util"

	"gorm.io/gorm"
)

// ProgressService 课程进度追踪：选课与讲完成事件，
// 并在一个事务内触发经验/连续打卡/成就级联
type ProgressService struct {
	EnrollmentRepo *repository.EnrollmentRepository
	CourseRepo     *repository.CourseRepository
	Gamification   *GamificationService
	DB             *gorm.DB
}

func NewProgressService(
	enrollmentRepo *repository.EnrollmentRepository,
	courseRepo *repository.CourseRepository,
	gamification *GamificationService,
	db *gorm.DB,
) *ProgressService {
	return &ProgressService{
		EnrollmentRepo: enrollmentRepo,
		CourseRepo:     courseRepo,
		Gamification:   gamification,
		DB:             db,
	}
}

type EnrollmentResult struct {
	Enrollment  *model.Enrollment  `json:"enrollment"`
	XP          *XPResult          `json:"xp"`
	Achievement *AchievementResult `json:"achievement,omitempty"`
}

// Enroll 选课：同一 (user, course) 至多一条记录，重复选课被拒绝。
// 选课奖励 25 XP，恰好达到 5 门时解锁 five_courses 成就
func (s *ProgressService) Enroll(userID, courseID uint) (*EnrollmentResult, error) {
	unlock := s.Gamification.lockUser(userID)
	defer unlock()

	var result *EnrollmentResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var course model.Course
		if err := tx.First(&course, courseID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return util.ErrCourseNotFound
			}
			return err
		}

		var existing int64
		if err := tx.Model(&model.Enrollment{}).
			Where("user_id = ? AND course_id = ?", userID, courseID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return util.ErrAlreadyEnrolled
		}

		user, err := findUserForUpdate(tx, userID)
		if err != nil {
			return err
		}

		enrollment := &model.Enrollment{
			UserID:            userID,
			CourseID:          courseID,
			PurchaseDate:      time.Now(),
			CompletedLectures: model.LectureIDSet{},
		}
		if err := tx.Create(enrollment).Error; err != nil {
			return err
		}

		xpResult, err := s.Gamification.awardXPLocked(tx, user, XPEnrollment, "course enrollment")
		if err != nil {
			return err
		}

		result = &EnrollmentResult{Enrollment: enrollment, XP: xpResult}

		var total int64
		if err := tx.Model(&model.Enrollment{}).
			Where("user_id = ?", userID).
			Count(&total).Error; err != nil {
			return err
		}
		if total == 5 {
			unlocked, err := s.Gamification.unlockLocked(tx, user, AchievementFiveCourses)
			if err != nil {
				return err
			}
			result.Achievement = unlocked
		}

		return tx.Save(user).Error
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// LectureGamification 单次讲完成事件触发的全部游戏化结果
type LectureGamification struct {
	LectureXP   *XPResult          `json:"lectureXp"`
	CourseXP    *XPResult          `json:"courseXp,omitempty"`
	Achievement *AchievementResult `json:"achievement,omitempty"`
	Streak      *StreakResult      `json:"streak"`
}

type LectureCompletionResult struct {
	CompletedLectures model.LectureIDSet   `json:"completedLectures"`
	TotalLectures     int                  `json:"totalLectures"`
	IsCompleted       bool                 `json:"isCompleted"`
	CompletionDate    *time.Time           `json:"completionDate,omitempty"`
	Gamification      *LectureGamification `json:"gamification"`
}

// MarkLectureCompleted 标记讲完成。重复标记对集合本身是空操作，
// 但仍计入观看历史、仍奖励讲完成经验并推进连续打卡（与线上行为一致，
// 见 DESIGN.md 的说明）。课程首次全部完成时追加课程完成奖励，
// 用户生涯首门完课再解锁 first_course
func (s *ProgressService) MarkLectureCompleted(userID, courseID, lectureID uint) (*LectureCompletionResult, error) {
	unlock := s.Gamification.lockUser(userID)
	defer unlock()

	var result *LectureCompletionResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var enrollment model.Enrollment
		if err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).
			First(&enrollment).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return util.ErrNotEnrolled
			}
			return err
		}

		course, err := s.loadCourseWithLectures(tx, courseID)
		if err != nil {
			return err
		}
		if !course.HasLecture(lectureID) {
			return util.ErrLectureNotFound
		}

		user, err := findUserForUpdate(tx, userID)
		if err != nil {
			return err
		}

		now := time.Now()

		enrollment.CompletedLectures = enrollment.CompletedLectures.Add(lectureID)

		event := &model.WatchEvent{UserID: userID, ContentID: lectureID, WatchedAt: now}
		if err := tx.Create(event).Error; err != nil {
			return err
		}

		lectureXP, err := s.Gamification.awardXPLocked(tx, user, XPLectureCompletion, "lecture completion")
		if err != nil {
			return err
		}

		streak, err := s.Gamification.updateStreakLocked(tx, user, now)
		if err != nil {
			return err
		}

		gamification := &LectureGamification{
			LectureXP: lectureXP,
			Streak:    streak,
		}

		total := course.TotalLectures()
		if !enrollment.IsCompleted && total > 0 && len(enrollment.CompletedLectures) >= total {
			enrollment.IsCompleted = true
			enrollment.CompletionDate = &now

			gamification.CourseXP, err = s.Gamification.awardXPLocked(tx, user, XPCourseCompletion, "course completion")
			if err != nil {
				return err
			}

			var completedBefore int64
			if err := tx.Model(&model.Enrollment{}).
				Where("user_id = ? AND is_completed = ? AND id <> ?", userID, true, enrollment.ID).
				Count(&completedBefore).Error; err != nil {
				return err
			}
			if completedBefore == 0 {
				gamification.Achievement, err = s.Gamification.unlockLocked(tx, user, AchievementFirstCourse)
				if err != nil {
					return err
				}
			}
		}

		if err := tx.Save(&enrollment).Error; err != nil {
			return err
		}
		if err := tx.Save(user).Error; err != nil {
			return err
		}

		result = &LectureCompletionResult{
			CompletedLectures: enrollment.CompletedLectures,
			TotalLectures:     total,
			IsCompleted:       enrollment.IsCompleted,
			CompletionDate:    enrollment.CompletionDate,
			Gamification:      gamification,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *ProgressService) loadCourseWithLectures(tx *gorm.DB, courseID uint) (*model.Course, error) {
	var course model.Course
	err := tx.
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("sections.position ASC")
		}).
		Preload("Sections.Lectures", func(db *gorm.DB) *gorm.DB {
			return db.Order("lectures.position ASC")
		}).
		First(&course, courseID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	return &course, nil
}

type CourseProgress struct {
	CourseID          uint               `json:"courseId"`
	CompletedLectures model.LectureIDSet `json:"completedLectures"`
	TotalLectures     int                `json:"totalLectures"`
	Percentage        int                `json:"percentage"`
	IsCompleted       bool               `json:"isCompleted"`
	CompletionDate    *time.Time         `json:"completionDate,omitempty"`
}

// GetCourseProgress 当前选课的完成进度，百分比由集合大小与总讲数派生
func (s *ProgressService) GetCourseProgress(userID, courseID uint) (*CourseProgress, error) {
	enrollment, err := s.EnrollmentRepo.FindByUserAndCourse(userID, courseID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrNotEnrolled
		}
		return nil, err
	}

	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	total := course.TotalLectures()
	percentage := 0
	if total > 0 {
		percentage = len(enrollment.CompletedLectures) * 100 / total
		if percentage > 100 {
			percentage = 100
		}
	}

	return &CourseProgress{
		CourseID:          courseID,
		CompletedLectures: enrollment.CompletedLectures,
		TotalLectures:     total,
		Percentage:        percentage,
		IsCompleted:       enrollment.IsCompleted,
		CompletionDate:    enrollment.CompletionDate,
	}, nil
}

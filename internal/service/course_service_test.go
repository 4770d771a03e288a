package service

import (
	"errors"
	"testing"

	"coursemarket_backend/internal/model"
	"coursemarket_backend/internal/repository"
	"coursemarket_backend/internal/util"

	"gorm.io/gorm"
)

func newCourseService(t *testing.T) (*CourseService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc := NewCourseService(repository.NewCourseRepository(db), repository.NewEnrollmentRepository(db))
	return svc, db
}

func TestCreateCourse(t *testing.T) {
	svc, _ := newCourseService(t)

	course, err := svc.CreateCourse(7, CourseRequest{
		Title: "Go 入门",
		Sections: []SectionRequest{
			{
				Title: "基础",
				Lectures: []LectureRequest{
					{Title: "安装", Duration: "05:30"},
					{Title: "语法", Duration: "1:02:00"},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}

	if course.InstructorID != 7 {
		t.Errorf("InstructorID = %d, want 7", course.InstructorID)
	}
	if course.IsPublished {
		t.Error("new course should start unpublished")
	}
	if course.TotalLectures() != 2 {
		t.Errorf("TotalLectures = %d, want 2", course.TotalLectures())
	}
}

func TestCreateCourseInvalidDuration(t *testing.T) {
	svc, _ := newCourseService(t)

	_, err := svc.CreateCourse(7, CourseRequest{
		Title: "broken",
		Sections: []SectionRequest{
			{Title: "s", Lectures: []LectureRequest{{Title: "l", Duration: "99"}}},
		},
	})

	var verr *util.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if verr.Field != "sections[0].lectures[0].duration" {
		t.Errorf("Field = %q", verr.Field)
	}
}

func TestGetCourseDetailTotals(t *testing.T) {
	svc, db := newCourseService(t)
	course := createTestCourse(t, db, "totals", 2) // 每讲 10:00

	detail, err := svc.GetCourse(course.ID)
	if err != nil {
		t.Fatalf("GetCourse: %v", err)
	}
	if detail.TotalLectures != 2 {
		t.Errorf("TotalLectures = %d, want 2", detail.TotalLectures)
	}
	if detail.TotalDurationSec != 1200 {
		t.Errorf("TotalDurationSec = %d, want 1200", detail.TotalDurationSec)
	}
}

func TestListCoursesPublishedOnly(t *testing.T) {
	svc, db := newCourseService(t)
	createTestCourse(t, db, "published", 1)
	draft := createTestCourse(t, db, "draft", 1)
	if err := db.Model(draft).Update("is_published", false).Error; err != nil {
		t.Fatalf("unpublish: %v", err)
	}

	courses, total, err := svc.ListCourses(1, 20, true)
	if err != nil {
		t.Fatalf("ListCourses: %v", err)
	}
	if total != 1 || len(courses) != 1 {
		t.Errorf("total = %d len = %d, want 1/1", total, len(courses))
	}

	_, total, err = svc.ListCourses(1, 20, false)
	if err != nil {
		t.Fatalf("ListCourses all: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
}

func TestUpdateCourseOwnership(t *testing.T) {
	svc, db := newCourseService(t)
	course := createTestCourse(t, db, "owned", 1) // InstructorID = 1

	_, err := svc.UpdateCourse(course.ID, 2, CourseRequest{Title: "hijack"})
	if !errors.Is(err, util.ErrPermissionDenied) {
		t.Errorf("err = %v, want ErrPermissionDenied", err)
	}

	updated, err := svc.UpdateCourse(course.ID, 1, CourseRequest{
		Title: "renamed",
		Sections: []SectionRequest{
			{Title: "new section", Lectures: []LectureRequest{{Title: "l", Duration: "01:00"}}},
		},
	})
	if err != nil {
		t.Fatalf("UpdateCourse: %v", err)
	}
	if updated.Title != "renamed" {
		t.Errorf("Title = %q, want renamed", updated.Title)
	}
	if updated.TotalLectures() != 1 {
		t.Errorf("TotalLectures = %d, want 1", updated.TotalLectures())
	}
}

// 章节替换后旧讲不能以游离状态留在讲表里
func TestUpdateCourseRemovesOldLectures(t *testing.T) {
	svc, db := newCourseService(t)
	course := createTestCourse(t, db, "replace", 2)
	oldLectureID := course.Sections[0].Lectures[0].ID

	_, err := svc.UpdateCourse(course.ID, 1, CourseRequest{
		Title: "replace",
		Sections: []SectionRequest{
			{Title: "fresh", Lectures: []LectureRequest{{Title: "l", Duration: "02:00"}}},
		},
	})
	if err != nil {
		t.Fatalf("UpdateCourse: %v", err)
	}

	var lecture struct{ ID uint }
	err = db.Model(&model.Lecture{}).Where("id = ?", oldLectureID).First(&lecture).Error
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("old lecture still live: err = %v", err)
	}

	detail, err := svc.GetCourse(course.ID)
	if err != nil {
		t.Fatalf("GetCourse: %v", err)
	}
	if detail.TotalLectures != 1 {
		t.Errorf("TotalLectures = %d, want 1", detail.TotalLectures)
	}
}

func TestPublishCourse(t *testing.T) {
	svc, db := newCourseService(t)
	course := createTestCourse(t, db, "to publish", 1)
	if err := db.Model(course).Update("is_published", false).Error; err != nil {
		t.Fatalf("unpublish: %v", err)
	}

	if err := svc.PublishCourse(course.ID, 2); !errors.Is(err, util.ErrPermissionDenied) {
		t.Errorf("err = %v, want ErrPermissionDenied", err)
	}
	if err := svc.PublishCourse(course.ID, 1); err != nil {
		t.Fatalf("PublishCourse: %v", err)
	}

	detail, err := svc.GetCourse(course.ID)
	if err != nil {
		t.Fatalf("GetCourse: %v", err)
	}
	if !detail.IsPublished {
		t.Error("course should be published")
	}
}

func TestGetInstructorDashboard(t *testing.T) {
	svc, db := newCourseService(t)
	course := createTestCourse(t, db, "stats", 1)
	user := createTestUser(t, db, "student")

	gamification := NewGamificationService(
		repository.NewUserRepository(db),
		repository.NewAchievementRepository(db),
		nil,
		db,
	)
	progress := NewProgressService(
		repository.NewEnrollmentRepository(db),
		repository.NewCourseRepository(db),
		gamification,
		db,
	)

	if _, err := progress.Enroll(user.ID, course.ID); err != nil {
		t.Fatalf("Enroll: %v", err)
	}

	stats, err := svc.GetInstructorDashboard(1)
	if err != nil {
		t.Fatalf("GetInstructorDashboard: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("stats = %d, want 1", len(stats))
	}
	if stats[0].Enrollments != 1 {
		t.Errorf("Enrollments = %d, want 1", stats[0].Enrollments)
	}
}

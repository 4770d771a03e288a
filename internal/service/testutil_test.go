package service

import (
	"fmt"
	"testing"

	"coursemarket_backend/internal/model"
	"coursemarket_backend/internal/repository"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB 每个测试独立的内存数据库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	err = db.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.Section{},
		&model.Lecture{},
		&model.Enrollment{},
		&model.Achievement{},
		&model.WatchEvent{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func newGamificationService(t *testing.T) (*GamificationService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc := NewGamificationService(
		repository.NewUserRepository(db),
		repository.NewAchievementRepository(db),
		nil,
		db,
	)
	return svc, db
}

func newProgressService(t *testing.T) (*ProgressService, *GamificationService, *gorm.DB) {
	t.Helper()
	gamification, db := newGamificationService(t)
	svc := NewProgressService(
		repository.NewEnrollmentRepository(db),
		repository.NewCourseRepository(db),
		gamification,
		db,
	)
	return svc, gamification, db
}

func createTestUser(t *testing.T, db *gorm.DB, name string) *model.User {
	t.Helper()
	user := &model.User{
		Name:     name,
		Email:    name + "@example.com",
		Password: "hashed",
		Role:     model.Student,
		Level:    1,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}

// createTestCourse 按每个章节的讲数构造课程，返回带 ID 的完整结构
func createTestCourse(t *testing.T, db *gorm.DB, title string, lecturesPerSection ...int) *model.Course {
	t.Helper()

	course := &model.Course{
		Title:        title,
		InstructorID: 1,
		IsPublished:  true,
	}
	for si, n := range lecturesPerSection {
		section := model.Section{
			Title:    fmt.Sprintf("%s section %d", title, si+1),
			Position: si,
		}
		for li := 0; li < n; li++ {
			section.Lectures = append(section.Lectures, model.Lecture{
				Title:    fmt.Sprintf("%s lecture %d.%d", title, si+1, li+1),
				Duration: "10:00",
				Position: li,
			})
		}
		course.Sections = append(course.Sections, section)
	}

	if err := db.Create(course).Error; err != nil {
		t.Fatalf("create test course: %v", err)
	}
	return course
}

func reloadUser(t *testing.T, db *gorm.DB, id uint) *model.User {
	t.Helper()
	var user model.User
	if err := db.First(&user, id).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	return &user
}

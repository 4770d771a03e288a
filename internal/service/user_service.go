package service

import (
	"time"

	"coursemarket_backend/internal/model"
	"coursemarket_backend/internal/repository"
	"coursemarket_backend/internal/util"

	"gorm.io/gorm"
)

// UserService 用户资料读取与维护
type UserService struct {
	UserRepo       *repository.UserRepository
	EnrollmentRepo *repository.EnrollmentRepository
}

func NewUserService(userRepo *repository.UserRepository, enrollmentRepo *repository.EnrollmentRepository) *UserService {
	return &UserService{UserRepo: userRepo, EnrollmentRepo: enrollmentRepo}
}

type UserProfile struct {
	User             *model.User `json:"user"`
	EnrolledCourses  int64       `json:"enrolledCourses"`
	CompletedCourses int64       `json:"completedCourses"`
}

func (s *UserService) GetProfile(userID uint) (*UserProfile, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	enrolled, err := s.EnrollmentRepo.CountByUserID(userID)
	if err != nil {
		return nil, err
	}
	completed, err := s.EnrollmentRepo.CountCompletedByUserID(userID)
	if err != nil {
		return nil, err
	}

	return &UserProfile{
		User:             user,
		EnrolledCourses:  enrolled,
		CompletedCourses: completed,
	}, nil
}

func (s *UserService) UpdateProfile(userID uint, name, avatar string) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	if name != "" {
		user.Name = name
	}
	if avatar != "" {
		user.Avatar = avatar
	}
	user.UpdatedAt = time.Now()

	if err := s.UserRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

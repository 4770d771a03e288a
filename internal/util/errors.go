package util

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound       = errors.New("用户不存在")
	ErrEmailRegistered    = errors.New("该邮箱已被注册")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrCourseNotFound     = errors.New("course not found")
	ErrLectureNotFound    = errors.New("lecture not found in course")
	ErrNotEnrolled        = errors.New("not enrolled in this course")
	ErrAlreadyEnrolled    = errors.New("already enrolled in this course")
	ErrNegativeXPAmount   = errors.New("xp amount must be non-negative")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError 字段级校验失败，向调用方暴露具体字段
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

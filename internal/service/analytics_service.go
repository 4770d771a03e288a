package service

import (
	"math"
	"time"

	"coursemarket_backend/internal/model"
	"coursemarket_backend/internal/repository"
	"coursemarket_backend/internal/util"

	"gorm.io/gorm"
)

// 每条观看事件折算的固定时间片
const (
	watchEventHours   = 0.25
	watchEventMinutes = 15.0
)

// AnalyticsService 只读派生指标，按请求重新计算，不写入任何状态
type AnalyticsService struct {
	UserRepo       *repository.UserRepository
	WatchEventRepo *repository.WatchEventRepository
	EnrollmentRepo *repository.EnrollmentRepository
}

func NewAnalyticsService(
	userRepo *repository.UserRepository,
	watchEventRepo *repository.WatchEventRepository,
	enrollmentRepo *repository.EnrollmentRepository,
) *AnalyticsService {
	return &AnalyticsService{
		UserRepo:       userRepo,
		WatchEventRepo: watchEventRepo,
		EnrollmentRepo: enrollmentRepo,
	}
}

type ProgressDistribution struct {
	Completed  int `json:"completed"`
	InProgress int `json:"inProgress"`
	NotStarted int `json:"notStarted"`
}

type StudentAnalytics struct {
	WeeklyMomentum   int                  `json:"weeklyMomentum"`
	ConsistencyRatio int                  `json:"consistencyRatio"`
	RecoveryScore    int                  `json:"recoveryScore"`
	WeekdayHours     map[string]float64   `json:"weekdayHours"`
	Distribution     ProgressDistribution `json:"progressDistribution"`
}

func (s *AnalyticsService) GetStudentAnalytics(userID uint) (*StudentAnalytics, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	events, err := s.WatchEventRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}

	enrollments, err := s.EnrollmentRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}

	return buildStudentAnalytics(user, events, enrollments, time.Now()), nil
}

// buildStudentAnalytics 纯函数：相同输入必然产生相同输出
func buildStudentAnalytics(user *model.User, events []model.WatchEvent, enrollments []model.Enrollment, now time.Time) *StudentAnalytics {
	return &StudentAnalytics{
		WeeklyMomentum:   weeklyMomentum(events, now),
		ConsistencyRatio: consistencyRatio(user, events, now),
		RecoveryScore:    recoveryScore(events, now),
		WeekdayHours:     weekdayHours(events, now),
		Distribution:     progressDistribution(enrollments),
	}
}

// weeklyMomentum 近 7 天与前 7 天活动分钟数的百分比变化
func weeklyMomentum(events []model.WatchEvent, now time.Time) int {
	weekAgo := now.AddDate(0, 0, -7)
	twoWeeksAgo := now.AddDate(0, 0, -14)

	var cur, prev float64
	for _, e := range events {
		switch {
		case !e.WatchedAt.Before(weekAgo) && !e.WatchedAt.After(now):
			cur += watchEventMinutes
		case !e.WatchedAt.Before(twoWeeksAgo) && e.WatchedAt.Before(weekAgo):
			prev += watchEventMinutes
		}
	}

	switch {
	case prev == 0 && cur > 0:
		return 100
	case prev == 0 && cur == 0:
		return 0
	default:
		return int(math.Round((cur - prev) / prev * 100))
	}
}

// consistencyRatio 注册以来的活跃天数占比，上限 100
func consistencyRatio(user *model.User, events []model.WatchEvent, now time.Time) int {
	activeDays := make(map[string]struct{})
	for _, e := range events {
		activeDays[e.WatchedAt.Format(util.DateFormat)] = struct{}{}
	}

	daysSinceJoin := int(now.Sub(user.CreatedAt).Hours() / 24)
	if daysSinceJoin < 1 {
		daysSinceJoin = 1
	}

	ratio := int(math.Round(float64(len(activeDays)) / float64(daysSinceJoin) * 100))
	if ratio > 100 {
		ratio = 100
	}
	return ratio
}

// recoveryScore 距最后一次活动每过一天线性衰减 10 分，最低 0；无历史记 0
func recoveryScore(events []model.WatchEvent, now time.Time) int {
	if len(events) == 0 {
		return 0
	}

	last := events[0].WatchedAt
	for _, e := range events[1:] {
		if e.WatchedAt.After(last) {
			last = e.WatchedAt
		}
	}

	days := int(truncateToDay(now).Sub(truncateToDay(last)).Hours() / 24)
	score := 100 - 10*days
	if score < 0 {
		score = 0
	}
	return score
}

// weekdayHours 近 7 天按星期分桶的活动小时数，每条事件计 0.25 小时
func weekdayHours(events []model.WatchEvent, now time.Time) map[string]float64 {
	hours := map[string]float64{
		"Monday": 0, "Tuesday": 0, "Wednesday": 0, "Thursday": 0,
		"Friday": 0, "Saturday": 0, "Sunday": 0,
	}

	weekAgo := now.AddDate(0, 0, -7)
	for _, e := range events {
		if e.WatchedAt.Before(weekAgo) || e.WatchedAt.After(now) {
			continue
		}
		hours[e.WatchedAt.Weekday().String()] += watchEventHours
	}
	return hours
}

func progressDistribution(enrollments []model.Enrollment) ProgressDistribution {
	var dist ProgressDistribution
	for _, e := range enrollments {
		switch {
		case e.IsCompleted:
			dist.Completed++
		case e.Started():
			dist.InProgress++
		default:
			dist.NotStarted++
		}
	}
	return dist
}

package service

import (
	"reflect"
	"testing"
	"time"

	"coursemarket_backend/internal/model"
)

func eventAt(t time.Time) model.WatchEvent {
	return model.WatchEvent{UserID: 1, ContentID: 1, WatchedAt: t}
}

func TestWeeklyMomentum(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		current int // 近 7 天事件数
		prior   int // 前 7 天事件数
		want    int
	}{
		{"no activity", 0, 0, 0},
		{"new activity", 2, 0, 100},
		{"doubled", 2, 1, 100},
		{"halved", 1, 2, -50},
		{"steady", 3, 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var events []model.WatchEvent
			for i := 0; i < tt.current; i++ {
				events = append(events, eventAt(now.AddDate(0, 0, -1).Add(time.Duration(i)*time.Hour)))
			}
			for i := 0; i < tt.prior; i++ {
				events = append(events, eventAt(now.AddDate(0, 0, -9).Add(time.Duration(i)*time.Hour)))
			}

			if got := weeklyMomentum(events, now); got != tt.want {
				t.Errorf("weeklyMomentum = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestConsistencyRatio(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	user := &model.User{}
	user.CreatedAt = now.AddDate(0, 0, -10)

	// 3 个不同活跃日 / 10 天 = 30%
	events := []model.WatchEvent{
		eventAt(now.AddDate(0, 0, -1)),
		eventAt(now.AddDate(0, 0, -1).Add(2 * time.Hour)), // 同日第二条不重复计
		eventAt(now.AddDate(0, 0, -3)),
		eventAt(now.AddDate(0, 0, -5)),
	}

	if got := consistencyRatio(user, events, now); got != 30 {
		t.Errorf("consistencyRatio = %d, want 30", got)
	}
}

func TestConsistencyRatioNewUser(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	user := &model.User{}
	user.CreatedAt = now.Add(-2 * time.Hour) // 注册不足一天

	events := []model.WatchEvent{eventAt(now.Add(-time.Hour))}

	// 分母按最少 1 天计，上限 100
	if got := consistencyRatio(user, events, now); got != 100 {
		t.Errorf("consistencyRatio = %d, want 100", got)
	}
}

func TestRecoveryScore(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		daysAgo  int
		hasEvent bool
		want     int
	}{
		{"today", 0, true, 100},
		{"three days", 3, true, 70},
		{"ten days", 10, true, 0},
		{"fifteen days", 15, true, 0},
		{"no history", 0, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var events []model.WatchEvent
			if tt.hasEvent {
				// 旧事件在前，确保取的是最近一条
				events = []model.WatchEvent{
					eventAt(now.AddDate(0, 0, -20)),
					eventAt(now.AddDate(0, 0, -tt.daysAgo)),
				}
			}
			if got := recoveryScore(events, now); got != tt.want {
				t.Errorf("recoveryScore = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWeekdayHours(t *testing.T) {
	// 2026-03-15 是周日
	now := time.Date(2026, 3, 15, 23, 0, 0, 0, time.UTC)

	events := []model.WatchEvent{
		eventAt(time.Date(2026, 3, 13, 10, 0, 0, 0, time.UTC)), // 周五
		eventAt(time.Date(2026, 3, 13, 11, 0, 0, 0, time.UTC)), // 周五
		eventAt(time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)), // 周六
		eventAt(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)),  // 窗口外
	}

	hours := weekdayHours(events, now)

	if len(hours) != 7 {
		t.Fatalf("buckets = %d, want 7", len(hours))
	}
	if hours["Friday"] != 0.5 {
		t.Errorf("Friday = %v, want 0.5", hours["Friday"])
	}
	if hours["Saturday"] != 0.25 {
		t.Errorf("Saturday = %v, want 0.25", hours["Saturday"])
	}
	if hours["Monday"] != 0 {
		t.Errorf("Monday = %v, want 0", hours["Monday"])
	}
}

func TestProgressDistribution(t *testing.T) {
	enrollments := []model.Enrollment{
		{IsCompleted: true, CompletedLectures: model.LectureIDSet{1, 2}},
		{CompletedLectures: model.LectureIDSet{1}},
		{CompletedLectures: model.LectureIDSet{}},
		{},
	}

	dist := progressDistribution(enrollments)
	if dist.Completed != 1 || dist.InProgress != 1 || dist.NotStarted != 2 {
		t.Errorf("distribution = %+v, want 1/1/2", dist)
	}
}

func TestBuildStudentAnalyticsDeterministic(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	user := &model.User{}
	user.CreatedAt = now.AddDate(0, 0, -30)

	events := []model.WatchEvent{
		eventAt(now.AddDate(0, 0, -1)),
		eventAt(now.AddDate(0, 0, -8)),
	}
	enrollments := []model.Enrollment{{CompletedLectures: model.LectureIDSet{1}}}

	a := buildStudentAnalytics(user, events, enrollments, now)
	b := buildStudentAnalytics(user, events, enrollments, now)

	if !reflect.DeepEqual(a, b) {
		t.Error("expected identical analytics for identical input")
	}
	if a.WeeklyMomentum != 0 {
		t.Errorf("WeeklyMomentum = %d, want 0", a.WeeklyMomentum)
	}
	if a.RecoveryScore != 90 {
		t.Errorf("RecoveryScore = %d, want 90", a.RecoveryScore)
	}
}

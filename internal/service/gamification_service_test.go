package service

import (
	"errors"
	"testing"
	"time"

	"coursemarket_backend/internal/model"
	"coursemarket_backend/internal/util"
)

func TestRequiredXP(t *testing.T) {
	tests := []struct {
		level int
		want  int
	}{
		{1, 100},
		{2, 150},
		{3, 225},
		{4, 337},
		{5, 506},
		{9, 2562},
		{10, 3844},
	}
	for _, tt := range tests {
		if got := RequiredXP(tt.level); got != tt.want {
			t.Errorf("RequiredXP(%d) = %d, want %d", tt.level, got, tt.want)
		}
	}
}

func TestAwardXPLevelUp(t *testing.T) {
	svc, db := newGamificationService(t)
	user := createTestUser(t, db, "alice")

	result, err := svc.AwardXP(user.ID, 120, "test")
	if err != nil {
		t.Fatalf("AwardXP: %v", err)
	}

	if !result.LeveledUp {
		t.Error("expected level up")
	}
	if result.NewLevel != 2 {
		t.Errorf("NewLevel = %d, want 2", result.NewLevel)
	}
	if result.CurrentXP != 20 {
		t.Errorf("CurrentXP = %d, want 20", result.CurrentXP)
	}
	if result.RequiredXP != 150 {
		t.Errorf("RequiredXP = %d, want 150", result.RequiredXP)
	}

	saved := reloadUser(t, db, user.ID)
	if saved.Level != 2 || saved.XP != 20 {
		t.Errorf("persisted state = level %d xp %d, want level 2 xp 20", saved.Level, saved.XP)
	}
}

// 多级联动：一次大额奖励与分两次奖励必须落在同一最终状态
func TestAwardXPCascadeEquivalence(t *testing.T) {
	svc, db := newGamificationService(t)
	once := createTestUser(t, db, "once")
	twice := createTestUser(t, db, "twice")

	if _, err := svc.AwardXP(once.ID, 1000, "test"); err != nil {
		t.Fatalf("AwardXP: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := svc.AwardXP(twice.ID, 500, "test"); err != nil {
			t.Fatalf("AwardXP: %v", err)
		}
	}

	a := reloadUser(t, db, once.ID)
	b := reloadUser(t, db, twice.ID)
	if a.Level != b.Level || a.XP != b.XP {
		t.Errorf("single award: level %d xp %d, split awards: level %d xp %d", a.Level, a.XP, b.Level, b.XP)
	}
	// 1000 XP 从 1 级升到 5 级，剩余 188
	if a.Level != 5 || a.XP != 188 {
		t.Errorf("final state = level %d xp %d, want level 5 xp 188", a.Level, a.XP)
	}
}

func TestAwardXPNegative(t *testing.T) {
	svc, db := newGamificationService(t)
	user := createTestUser(t, db, "bob")

	if _, err := svc.AwardXP(user.ID, -10, "test"); !errors.Is(err, util.ErrNegativeXPAmount) {
		t.Errorf("err = %v, want ErrNegativeXPAmount", err)
	}
}

func TestAwardXPUserNotFound(t *testing.T) {
	svc, _ := newGamificationService(t)

	if _, err := svc.AwardXP(999, 10, "test"); !errors.Is(err, util.ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

// 跨越 10 级时解锁 level_10，成就奖励的经验折入最终状态
func TestAwardXPLevelMilestone(t *testing.T) {
	svc, db := newGamificationService(t)
	user := createTestUser(t, db, "carol")
	user.Level = 9
	if err := db.Save(user).Error; err != nil {
		t.Fatalf("save user: %v", err)
	}

	result, err := svc.AwardXP(user.ID, RequiredXP(9), "test")
	if err != nil {
		t.Fatalf("AwardXP: %v", err)
	}

	if len(result.Achievements) != 1 {
		t.Fatalf("achievements = %d, want 1", len(result.Achievements))
	}
	unlocked := result.Achievements[0]
	if unlocked.Achievement.Key != AchievementLevel10.Key {
		t.Errorf("achievement key = %q, want %q", unlocked.Achievement.Key, AchievementLevel10.Key)
	}
	if result.CurrentLevel != 10 || result.CurrentXP != AchievementLevel10.XP {
		t.Errorf("final state = level %d xp %d, want level 10 xp %d",
			result.CurrentLevel, result.CurrentXP, AchievementLevel10.XP)
	}

	var count int64
	db.Model(&model.Achievement{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 1 {
		t.Errorf("achievement rows = %d, want 1", count)
	}
}

func TestUnlockAchievementIdempotent(t *testing.T) {
	svc, db := newGamificationService(t)
	user := createTestUser(t, db, "dave")

	first, err := svc.UnlockAchievement(user.ID, AchievementFirstCourse)
	if err != nil {
		t.Fatalf("UnlockAchievement: %v", err)
	}
	if first == nil {
		t.Fatal("expected unlock result")
	}
	if first.XP.XPAwarded != AchievementFirstCourse.XP {
		t.Errorf("XPAwarded = %d, want %d", first.XP.XPAwarded, AchievementFirstCourse.XP)
	}

	again, err := svc.UnlockAchievement(user.ID, AchievementFirstCourse)
	if err != nil {
		t.Fatalf("UnlockAchievement again: %v", err)
	}
	if again != nil {
		t.Error("expected nil result on repeat unlock")
	}

	saved := reloadUser(t, db, user.ID)
	// 100 XP 正好升到 2 级，重复解锁不再累计
	if saved.Level != 2 || saved.XP != 0 {
		t.Errorf("user state = level %d xp %d, want level 2 xp 0", saved.Level, saved.XP)
	}
}

func TestUpdateStreakStateMachine(t *testing.T) {
	svc, db := newGamificationService(t)
	user := createTestUser(t, db, "erin")

	day := func(n int) time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).AddDate(0, 0, n)
	}

	// 首次打卡
	result, err := svc.updateStreakLocked(db, user, day(0))
	if err != nil {
		t.Fatalf("updateStreakLocked: %v", err)
	}
	if result.Streak != 1 || result.Continued || result.Broken {
		t.Errorf("first day: %+v", result)
	}

	// 同日重复打卡不累计
	result, err = svc.updateStreakLocked(db, user, day(0).Add(3*time.Hour))
	if err != nil {
		t.Fatalf("updateStreakLocked: %v", err)
	}
	if result.Streak != 1 || result.Continued {
		t.Errorf("same day: %+v", result)
	}

	// 次日递增
	result, err = svc.updateStreakLocked(db, user, day(1))
	if err != nil {
		t.Fatalf("updateStreakLocked: %v", err)
	}
	if result.Streak != 2 || !result.Continued {
		t.Errorf("next day: %+v", result)
	}

	// 断档两天重置
	result, err = svc.updateStreakLocked(db, user, day(4))
	if err != nil {
		t.Fatalf("updateStreakLocked: %v", err)
	}
	if result.Streak != 1 || !result.Broken || result.Continued {
		t.Errorf("after gap: %+v", result)
	}
	if user.BestStreak != 2 {
		t.Errorf("BestStreak = %d, want 2", user.BestStreak)
	}
}

func TestUpdateStreakMilestone(t *testing.T) {
	svc, db := newGamificationService(t)
	user := createTestUser(t, db, "frank")

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		result, err := svc.updateStreakLocked(db, user, base.AddDate(0, 0, i))
		if err != nil {
			t.Fatalf("day %d: %v", i, err)
		}
		if i < 6 && result.Milestone {
			t.Errorf("day %d: unexpected milestone", i)
		}
		if i == 6 {
			if !result.Milestone {
				t.Fatal("day 7: expected milestone")
			}
			if result.XP == nil || result.XP.XPAwarded != XPStreakMilestone {
				t.Errorf("day 7: xp = %+v, want %d awarded", result.XP, XPStreakMilestone)
			}
			if result.XP.Reason != "7 Day Streak!" {
				t.Errorf("day 7: reason = %q", result.XP.Reason)
			}
		}
	}

	if user.Streak != 7 || user.BestStreak != 7 {
		t.Errorf("streak = %d best = %d, want 7/7", user.Streak, user.BestStreak)
	}
}

func TestGetStatsBadges(t *testing.T) {
	tests := []struct {
		name       string
		level      int
		bestStreak int
		want       []string
	}{
		{"novice", 1, 0, []string{"Novice"}},
		{"rising star", 5, 0, []string{"Rising Star"}},
		{"scholar with week warrior", 12, 8, []string{"Scholar", "Week Warrior"}},
		{"legend with monthly devotee", 30, 45, []string{"Legend", "Monthly Devotee"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := &model.User{Level: tt.level, BestStreak: tt.bestStreak}
			got := deriveBadges(user)
			if len(got) != len(tt.want) {
				t.Fatalf("badges = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("badges = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestGetStats(t *testing.T) {
	svc, db := newGamificationService(t)
	user := createTestUser(t, db, "grace")

	if _, err := svc.AwardXP(user.ID, 120, "test"); err != nil {
		t.Fatalf("AwardXP: %v", err)
	}
	if _, err := svc.UnlockAchievement(user.ID, AchievementFirstCourse); err != nil {
		t.Fatalf("UnlockAchievement: %v", err)
	}

	stats, err := svc.GetStats(user.ID)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.RequiredXP != RequiredXP(stats.Level) {
		t.Errorf("RequiredXP = %d, want %d", stats.RequiredXP, RequiredXP(stats.Level))
	}
	if len(stats.Achievements) != 1 {
		t.Errorf("achievements = %d, want 1", len(stats.Achievements))
	}
	if len(stats.Badges) == 0 {
		t.Error("expected at least one badge")
	}
}

// 排行榜按 XP 降序，同分按等级降序
func TestGetLeaderboardOrdering(t *testing.T) {
	svc, db := newGamificationService(t)

	fixtures := []struct {
		name  string
		xp    int
		level int
	}{
		{"low", 50, 3},
		{"top-high-level", 200, 5},
		{"top-low-level", 200, 2},
		{"bottom", 10, 1},
	}
	for _, f := range fixtures {
		user := createTestUser(t, db, f.name)
		user.XP = f.xp
		user.Level = f.level
		if err := db.Save(user).Error; err != nil {
			t.Fatalf("save %s: %v", f.name, err)
		}
	}

	entries, err := svc.GetLeaderboard(0)
	if err != nil {
		t.Fatalf("GetLeaderboard: %v", err)
	}

	wantOrder := []string{"top-high-level", "top-low-level", "low", "bottom"}
	if len(entries) != len(wantOrder) {
		t.Fatalf("entries = %d, want %d", len(entries), len(wantOrder))
	}
	for i, want := range wantOrder {
		if entries[i].User != want {
			t.Errorf("rank %d = %q, want %q", i+1, entries[i].User, want)
		}
		if entries[i].Rank != i+1 {
			t.Errorf("rank field = %d, want %d", entries[i].Rank, i+1)
		}
	}
}

func TestGetLeaderboardLimit(t *testing.T) {
	svc, db := newGamificationService(t)
	for i := 0; i < 5; i++ {
		createTestUser(t, db, string(rune('a'+i)))
	}

	entries, err := svc.GetLeaderboard(3)
	if err != nil {
		t.Fatalf("GetLeaderboard: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("entries = %d, want 3", len(entries))
	}
}

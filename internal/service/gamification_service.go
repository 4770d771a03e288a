package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"coursemarket_backend/internal/model"
	"coursemarket_backend/internal/repository"
	"coursemarket_backend/internal/util"
	"coursemarket_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// XP 奖励常量
const (
	XPLectureCompletion = 50
	XPCourseCompletion  = 500
	XPEnrollment        = 25
	XPStreakMilestone   = 100

	StreakMilestoneDays = 7

	DefaultLeaderboardLimit = 100
	leaderboardCacheTTL     = 60 * time.Second
)

// AchievementDef 成就定义：稳定 Key、展示标题和解锁奖励
type AchievementDef struct {
	Key   string
	Title string
	XP    int
}

var (
	AchievementFirstCourse = AchievementDef{Key: "first_course", Title: "Course Conqueror", XP: 100}
	AchievementFiveCourses = AchievementDef{Key: "five_courses", Title: "Learning Enthusiast", XP: 250}
	AchievementLevel10     = AchievementDef{Key: "level_10", Title: "Master Student", XP: 500}
	AchievementLevel25     = AchievementDef{Key: "level_25", Title: "Elite Scholar", XP: 1000}
)

// levelAchievements 等级里程碑，升级跨越阈值时解锁
var levelAchievements = []struct {
	Level int
	Def   AchievementDef
}{
	{10, AchievementLevel10},
	{25, AchievementLevel25},
}

type GamificationService struct {
	UserRepo        *repository.UserRepository
	AchievementRepo *repository.AchievementRepository
	Redis           *redis.Client
	DB              *gorm.DB

	userLocks sync.Map // userID -> *sync.Mutex
}

func NewGamificationService(
	userRepo *repository.UserRepository,
	achievementRepo *repository.AchievementRepository,
	rdb *redis.Client,
	db *gorm.DB,
) *GamificationService {
	return &GamificationService{
		UserRepo:        userRepo,
		AchievementRepo: achievementRepo,
		Redis:           rdb,
		DB:              db,
	}
}

type XPResult struct {
	XPAwarded    int                  `json:"xpAwarded"`
	CurrentXP    int                  `json:"currentXp"`
	CurrentLevel int                  `json:"currentLevel"`
	LeveledUp    bool                 `json:"leveledUp"`
	NewLevel     int                  `json:"newLevel,omitempty"`
	RequiredXP   int                  `json:"requiredXp"`
	Reason       string               `json:"reason"`
	Achievements []*AchievementResult `json:"achievements,omitempty"`
}

type AchievementResult struct {
	Achievement *model.Achievement `json:"achievement"`
	XP          *XPResult          `json:"xp"`
}

type StreakResult struct {
	Streak    int       `json:"streak"`
	Continued bool      `json:"continued"`
	Milestone bool      `json:"milestone,omitempty"`
	Broken    bool      `json:"broken,omitempty"`
	XP        *XPResult `json:"xp,omitempty"`
}

// RequiredXP 离开等级 level 所需的经验阈值：floor(100 * 1.5^(level-1))
func RequiredXP(level int) int {
	return int(math.Floor(100 * math.Pow(1.5, float64(level-1))))
}

// lockUser 获取该用户的互斥锁，保证同一用户的读改写串行化；
// 不同用户的变更互不阻塞
func (s *GamificationService) lockUser(userID uint) func() {
	v, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func findUserForUpdate(tx *gorm.DB, userID uint) (*model.User, error) {
	var user model.User
	if err := tx.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// AwardXP 给用户加经验并级联处理升级；整个级联在一个事务内提交
func (s *GamificationService) AwardXP(userID uint, amount int, reason string) (*XPResult, error) {
	if amount < 0 {
		return nil, util.ErrNegativeXPAmount
	}

	unlock := s.lockUser(userID)
	defer unlock()

	var result *XPResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		user, err := findUserForUpdate(tx, userID)
		if err != nil {
			return err
		}

		result, err = s.awardXPLocked(tx, user, amount, reason)
		if err != nil {
			return err
		}
		return tx.Save(user).Error
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// awardXPLocked 在已持锁、已开事务的前提下对内存中的 user 应用经验变更。
// 升级循环必然终止：阈值随等级递增而剩余经验每轮递减。
// 跨越等级里程碑时解锁成就，成就奖励的经验在返回前递归折算进最终状态。
func (s *GamificationService) awardXPLocked(tx *gorm.DB, user *model.User, amount int, reason string) (*XPResult, error) {
	if amount < 0 {
		return nil, util.ErrNegativeXPAmount
	}

	startLevel := user.Level
	user.XP += amount
	for user.XP >= RequiredXP(user.Level) {
		user.XP -= RequiredXP(user.Level)
		user.Level++
	}

	result := &XPResult{
		XPAwarded: amount,
		Reason:    reason,
	}

	for _, la := range levelAchievements {
		if startLevel < la.Level && user.Level >= la.Level {
			unlocked, err := s.unlockLocked(tx, user, la.Def)
			if err != nil {
				return nil, err
			}
			if unlocked != nil {
				result.Achievements = append(result.Achievements, unlocked)
			}
		}
	}

	// 级联结束后的最终状态
	result.CurrentXP = user.XP
	result.CurrentLevel = user.Level
	result.RequiredXP = RequiredXP(user.Level)
	if user.Level > startLevel {
		result.LeveledUp = true
		result.NewLevel = user.Level
	}

	monitoring.XPAwarded.Add(float64(amount))
	return result, nil
}

// UnlockAchievement 幂等解锁成就；已解锁时返回 (nil, nil)，不重复奖励
func (s *GamificationService) UnlockAchievement(userID uint, def AchievementDef) (*AchievementResult, error) {
	unlock := s.lockUser(userID)
	defer unlock()

	var result *AchievementResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		user, err := findUserForUpdate(tx, userID)
		if err != nil {
			return err
		}

		result, err = s.unlockLocked(tx, user, def)
		if err != nil {
			return err
		}
		if result == nil {
			return nil
		}
		return tx.Save(user).Error
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *GamificationService) unlockLocked(tx *gorm.DB, user *model.User, def AchievementDef) (*AchievementResult, error) {
	var count int64
	err := tx.Model(&model.Achievement{}).
		Where("user_id = ? AND achievement_key = ?", user.ID, def.Key).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, nil
	}

	achievement := &model.Achievement{
		UserID:     user.ID,
		Key:        def.Key,
		Title:      def.Title,
		XPAwarded:  def.XP,
		UnlockedAt: time.Now(),
	}
	if err := tx.Create(achievement).Error; err != nil {
		return nil, err
	}

	xpResult, err := s.awardXPLocked(tx, user, def.XP, fmt.Sprintf("Achievement unlocked: %s", def.Title))
	if err != nil {
		return nil, err
	}

	monitoring.AchievementsUnlocked.Inc()
	return &AchievementResult{Achievement: achievement, XP: xpResult}, nil
}

// UpdateStreak 按自然日推进连续学习记录
func (s *GamificationService) UpdateStreak(userID uint) (*StreakResult, error) {
	unlock := s.lockUser(userID)
	defer unlock()

	var result *StreakResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		user, err := findUserForUpdate(tx, userID)
		if err != nil {
			return err
		}

		result, err = s.updateStreakLocked(tx, user, time.Now())
		if err != nil {
			return err
		}
		return tx.Save(user).Error
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// updateStreakLocked 连续打卡状态机：
// 同日重复调用不累计；昨日有记录则递增，每满 7 天奖励一次经验；
// 断档两天以上重置为 1
func (s *GamificationService) updateStreakLocked(tx *gorm.DB, user *model.User, now time.Time) (*StreakResult, error) {
	today := truncateToDay(now)

	if user.LastStreakDate != nil && truncateToDay(*user.LastStreakDate).Equal(today) {
		return &StreakResult{Streak: user.Streak, Continued: false}, nil
	}

	result := &StreakResult{}
	yesterday := today.AddDate(0, 0, -1)

	if user.LastStreakDate != nil && truncateToDay(*user.LastStreakDate).Equal(yesterday) {
		user.Streak++
		result.Continued = true

		if user.Streak%StreakMilestoneDays == 0 {
			xpResult, err := s.awardXPLocked(tx, user, XPStreakMilestone, fmt.Sprintf("%d Day Streak!", user.Streak))
			if err != nil {
				return nil, err
			}
			result.Milestone = true
			result.XP = xpResult
		}
	} else {
		result.Broken = user.LastStreakDate != nil
		user.Streak = 1
	}

	user.LastStreakDate = &today
	if user.Streak > user.BestStreak {
		user.BestStreak = user.Streak
	}

	result.Streak = user.Streak
	return result, nil
}

type GamificationStats struct {
	XP           int                 `json:"xp"`
	Level        int                 `json:"level"`
	RequiredXP   int                 `json:"requiredXp"`
	Streak       int                 `json:"streak"`
	BestStreak   int                 `json:"bestStreak"`
	Achievements []model.Achievement `json:"achievements"`
	Badges       []string            `json:"badges"`
}

func (s *GamificationService) GetStats(userID uint) (*GamificationStats, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	achievements, err := s.AchievementRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}

	return &GamificationStats{
		XP:           user.XP,
		Level:        user.Level,
		RequiredXP:   RequiredXP(user.Level),
		Streak:       user.Streak,
		BestStreak:   user.BestStreak,
		Achievements: achievements,
		Badges:       deriveBadges(user),
	}, nil
}

// deriveBadges 由等级和连续记录派生的称号，与成就记录相互独立
func deriveBadges(user *model.User) []string {
	badges := []string{}
	switch {
	case user.Level >= 25:
		badges = append(badges, "Legend")
	case user.Level >= 10:
		badges = append(badges, "Scholar")
	case user.Level >= 5:
		badges = append(badges, "Rising Star")
	default:
		badges = append(badges, "Novice")
	}
	if user.BestStreak >= 30 {
		badges = append(badges, "Monthly Devotee")
	} else if user.BestStreak >= 7 {
		badges = append(badges, "Week Warrior")
	}
	return badges
}

type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	User   string `json:"user"`
	XP     int    `json:"xp"`
	Level  int    `json:"level"`
	Avatar string `json:"avatar,omitempty"`
}

// GetLeaderboard 按 (xp desc, level desc) 排名，结果短暂缓存于 Redis
func (s *GamificationService) GetLeaderboard(limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}

	cacheKey := fmt.Sprintf("leaderboard:%d", limit)
	if s.Redis != nil {
		if cached, err := s.Redis.Get(context.Background(), cacheKey).Result(); err == nil {
			var entries []LeaderboardEntry
			if json.Unmarshal([]byte(cached), &entries) == nil {
				return entries, nil
			}
		}
	}

	users, err := s.UserRepo.FindTopByXP(limit)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(users))
	for i, user := range users {
		entries[i] = LeaderboardEntry{
			Rank:   i + 1,
			User:   user.Name,
			XP:     user.XP,
			Level:  user.Level,
			Avatar: user.Avatar,
		}
	}

	if s.Redis != nil {
		if data, err := json.Marshal(entries); err == nil {
			s.Redis.Set(context.Background(), cacheKey, data, leaderboardCacheTTL)
		}
	}

	return entries, nil
}

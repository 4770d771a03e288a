package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coursemarket_backend/internal/config"
	"coursemarket_backend/internal/model"
	"coursemarket_backend/internal/repository"
	"coursemarket_backend/internal/service"
	"coursemarket_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openTestDB(t *testing.T, name string, migrate bool) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", t.Name(), name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if migrate {
		if err := db.AutoMigrate(&model.User{}); err != nil {
			t.Fatalf("migrate test db: %v", err)
		}
	}
	return db
}

// 打卡更新失败时登录本身仍然成功，响应里只是没有 streak 字段
func TestLoginSurvivesStreakFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger.Log = zap.NewNop()

	db := openTestDB(t, "main", true)
	// 游戏化服务连向未迁移的库，打卡必然报错
	broken := openTestDB(t, "broken", false)

	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpireTime = time.Hour

	authSvc := service.NewAuthService(repository.NewUserRepository(db), cfg)
	gamification := service.NewGamificationService(
		repository.NewUserRepository(broken),
		repository.NewAchievementRepository(broken),
		nil,
		broken,
	)

	user := &model.User{Name: "alice", Email: "alice@example.com", Password: "secret123", Role: model.Student}
	if err := authSvc.Register(user); err != nil {
		t.Fatalf("Register: %v", err)
	}

	ctrl := NewAuthController(authSvc, gamification)
	router := gin.New()
	router.POST("/api/login", ctrl.Login)

	body, _ := json.Marshal(map[string]string{"email": "alice@example.com", "password": "secret123"})
	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Code int                        `json:"code"`
		Data map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, ok := resp.Data["token"]; !ok {
		t.Error("expected token in response")
	}
	if _, ok := resp.Data["streak"]; ok {
		t.Error("streak should be omitted when the update fails")
	}
}

package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"coursemarket_backend/internal/config"
	"coursemarket_backend/internal/controller"
	"coursemarket_backend/internal/middleware"
	"coursemarket_backend/internal/repository"
	"coursemarket_backend/internal/service"
	"coursemarket_backend/pkg/database"
	"coursemarket_backend/pkg/logger"
	"coursemarket_backend/pkg/monitoring"
	"coursemarket_backend/pkg/security"
	"coursemarket_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client

	tracerProvider  *sdktrace.TracerProvider
	configMu        sync.Mutex
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user        *repository.UserRepository
	course      *repository.CourseRepository
	enrollment  *repository.EnrollmentRepository
	achievement *repository.AchievementRepository
	watchEvent  *repository.WatchEventRepository
}

type services struct {
	auth         *service.AuthService
	user         *service.UserService
	course       *service.CourseService
	gamification *service.GamificationService
	progress     *service.ProgressService
	analytics    *service.AnalyticsService
}

type controllers struct {
	auth         *controller.AuthController
	user         *controller.UserController
	course       *controller.CourseController
	gamification *controller.GamificationController
	progress     *controller.ProgressController
	analytics    *controller.AnalyticsController
	health       *controller.HealthController
}

// RegisterConfigCallback 注册配置热更新回调
func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configMu.Lock()
	defer a.configMu.Unlock()
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ReloadConfig 配置文件变更时由 configwatcher 调用
func (a *App) ReloadConfig(cfg interface{}) {
	newCfg, ok := cfg.(*config.Config)
	if !ok {
		logger.Log.Error("Config reload got unexpected type")
		return
	}

	a.configMu.Lock()
	callbacks := a.configCallbacks
	a.configMu.Unlock()

	for _, cb := range callbacks {
		cb(newCfg)
	}
	logger.Log.Info("Config reloaded")
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(db),
		course:      repository.NewCourseRepository(db),
		enrollment:  repository.NewEnrollmentRepository(db),
		achievement: repository.NewAchievementRepository(db),
		watchEvent:  repository.NewWatchEventRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.auth = service.NewAuthService(repos.user, cfg)
	s.user = service.NewUserService(repos.user, repos.enrollment)
	s.course = service.NewCourseService(repos.course, repos.enrollment)
	s.gamification = service.NewGamificationService(repos.user, repos.achievement, rdb, db)
	s.progress = service.NewProgressService(repos.enrollment, repos.course, s.gamification, db)
	s.analytics = service.NewAnalyticsService(repos.user, repos.watchEvent, repos.enrollment)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:         controller.NewAuthController(s.auth, s.gamification),
		user:         controller.NewUserController(s.user),
		course:       controller.NewCourseController(s.course),
		gamification: controller.NewGamificationController(s.gamification),
		progress:     controller.NewProgressController(s.progress),
		analytics:    controller.NewAnalyticsController(s.analytics),
		health:       controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(middleware.RequestID())
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	controllers := app.initControllers(services, db)

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("course-market", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracerProvider = tp
	}

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(context.Background()); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}

	log.Println("Server exiting")
}

package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"resume_optimizer_backend/internal/config"
	"resume_optimizer_backend/internal/controller"
	"resume_optimizer_backend/internal/repository"
	"resume_optimizer_backend/internal/service"
	"resume_optimizer_backend/pkg/database"
	"resume_optimizer_backend/pkg/logger"
	"resume_optimizer_backend/pkg/monitoring"
	"resume_optimizer_backend/pkg/security"
	"resume_optimizer_backend/pkg/tracing"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user      *repository.UserRepository
	profile   *repository.ProfileRepository
	skill     *repository.SkillRepository
	challenge *repository.ChallengeRepository
	step      *repository.ProjectStepRepository
	activity  *repository.ActivityRepository
}

type services struct {
	auth      *service.AuthService
	user      *service.UserService
	storage   *service.StorageService
	oracle    *service.OracleService
	extract   *service.ExtractService
	analysis  *service.AnalysisService
	challenge *service.ChallengeService
	project   *service.ProjectService
	resume    *service.ResumeService
	dashboard *service.DashboardService
}

type controllers struct {
	auth      *controller.AuthController
	resume    *controller.ResumeController
	challenge *controller.ChallengeController
	project   *controller.ProjectController
	dashboard *controller.DashboardController
	health    *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig 配置热更新入口：刷新流水线参数和模型调用限速
func (a *App) ApplyConfig(cfg *config.Config) {
	a.Config.Pipeline = cfg.Pipeline
	a.services.oracle.SetMinInterval(time.Duration(cfg.Pipeline.MinOracleIntervalMs) * time.Millisecond)
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
	logger.Log.Info("Pipeline config reloaded",
		zap.Int("maxGapSkills", cfg.Pipeline.MaxGapSkills),
		zap.Int("minOracleIntervalMs", cfg.Pipeline.MinOracleIntervalMs))
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:      repository.NewUserRepository(db),
		profile:   repository.NewProfileRepository(db),
		skill:     repository.NewSkillRepository(db),
		challenge: repository.NewChallengeRepository(db),
		step:      repository.NewProjectStepRepository(db),
		activity:  repository.NewActivityRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.user = service.NewUserService(repos.user)

	s.oracle = service.NewOracleService(cfg.AI,
		time.Duration(cfg.Pipeline.MinOracleIntervalMs)*time.Millisecond, rdb)
	s.extract = service.NewExtractService()
	s.analysis = service.NewAnalysisService(s.oracle, cfg)
	s.challenge = service.NewChallengeService(s.oracle, repos.challenge, repos.skill, repos.activity, cfg)
	s.project = service.NewProjectService(s.oracle, repos.step, repos.activity, cfg)
	s.resume = service.NewResumeService(s.extract, s.analysis, s.challenge,
		repos.profile, repos.skill, repos.activity, s.oracle, cfg)
	s.dashboard = service.NewDashboardService(repos.profile, repos.challenge, repos.step, repos.activity)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:      controller.NewAuthController(s.auth, s.user),
		resume:    controller.NewResumeController(s.resume, s.storage),
		challenge: controller.NewChallengeController(s.challenge),
		project:   controller.NewProjectController(s.project, s.resume),
		dashboard: controller.NewDashboardController(s.dashboard, s.oracle),
		health:    controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests,
		time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("resume-optimizer", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
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

	log.Println("Server exiting")
}

package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"learning_path_backend/internal/config"
	"learning_path_backend/internal/controller"
	"learning_path_backend/internal/repository"
	"learning_path_backend/internal/service"
	"learning_path_backend/internal/util"
	"learning_path_backend/pkg/configwatcher"
	"learning_path_backend/pkg/database"
	"learning_path_backend/pkg/logger"
	"learning_path_backend/pkg/monitoring"
	"learning_path_backend/pkg/security"
	"learning_path_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services
}

type repositories struct {
	user         *repository.UserRepository
	learningPath *repository.LearningPathRepository
	studyData    *repository.StudyDataRepository
}

type services struct {
	auth         *service.AuthService
	generator    *service.GeneratorService
	learningPath *service.LearningPathService
	progress     *service.ProgressService
	analytics    *service.AnalyticsService
	study        *service.StudyService
	export       *service.ExportService
	storage      *service.StorageService
}

type controllers struct {
	auth         *controller.AuthController
	learningPath *controller.LearningPathController
	progress     *controller.ProgressController
	analytics    *controller.AnalyticsController
	study        *controller.StudyController
	export       *controller.ExportController
	health       *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		user:         repository.NewUserRepository(db),
		learningPath: repository.NewLearningPathRepository(db, rdb),
		studyData:    repository.NewStudyDataRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, rdb, cfg.JWT)
	s.generator = service.NewGeneratorService(cfg.AI)
	s.learningPath = service.NewLearningPathService(repos.learningPath, s.generator)
	s.progress = service.NewProgressService(repos.learningPath)
	s.analytics = service.NewAnalyticsService(repos.learningPath)
	s.study = service.NewStudyService(repos.studyData)
	s.export = service.NewExportService()

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:         controller.NewAuthController(s.auth),
		learningPath: controller.NewLearningPathController(s.learningPath),
		progress:     controller.NewProgressController(s.progress),
		analytics:    controller.NewAnalyticsController(s.analytics),
		study:        controller.NewStudyController(s.study),
		export:       controller.NewExportController(s.learningPath, s.export, s.storage),
		health:       controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// watchConfig AI 接入参数支持热更新，其余配置改动只打日志
func (a *App) watchConfig() {
	go configwatcher.WatchConfig("configs/config.yaml", a.Config, func(newCfg interface{}) {
		cfg, ok := newCfg.(*config.Config)
		if !ok {
			return
		}
		a.services.generator.UpdateConfig(cfg.AI)
		logger.Log.Info("Config reloaded", zap.String("ai_model", cfg.AI.Model))
	})
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	migrate := cfg.Server.Mode != "release" || cfg.ForceMigrate
	db, err := database.InitDB(&cfg.Database, migrate)
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

	if cfg.MigrateOnly {
		return app
	}

	repos := app.initRepositories(db, rdb)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("pathgen-backend", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/exports", cfg.Storage.LocalPath)
	}

	app.watchConfig()

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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// 学习工具数据延迟写入，关停前必须全部落库
	if a.services != nil && a.services.study != nil {
		a.services.study.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}

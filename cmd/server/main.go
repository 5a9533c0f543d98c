package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/config"
	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/handler"
	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/middleware"
	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/model/entity"
	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/repository"
	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/service"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting pv-qa-lims service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := migrate(db); err != nil {
		zapLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// 初始化Redis
	rdb := initRedis(cfg.Redis)

	// 初始化依赖
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, db, rdb, cfg)
	handlers := handler.NewHandlers(services)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// 注册路由
	registerRoutes(router, handlers, cfg, db, rdb)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.Customer{},
		&entity.LabFacility{},
		&entity.Equipment{},
		&entity.TestStandard{},
		&entity.ServiceRequest{},
		&entity.Sample{},
		&entity.SampleCustodyRecord{},
		&entity.TestPlan{},
		&entity.TestResult{},
		&entity.Report{},
		&entity.Certification{},
		&entity.AuditLog{},
		&entity.Notification{},
		&entity.CodeSequence{},
	)
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config, db *gorm.DB, rdb *redis.Client) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "component": "database"})
			return
		}
		if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "component": "redis"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	secret := cfg.JWT.Secret

	// API v1
	v1 := r.Group("/api/v1")
	{
		// 认证 (无需登录)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
		}

		// 证书公开验证，无需认证
		v1.GET("/certifications/verify/:certificateNumber", h.Certification.Verify)

		// 只读接口匿名可访问，写操作要求登录
		public := v1.Group("")
		public.Use(middleware.OptionalAuth(secret))
		{
			public.GET("/service-requests", h.ServiceRequest.List)
			public.GET("/service-requests/:id", h.ServiceRequest.Get)
			public.GET("/samples", h.Sample.List)
			public.GET("/samples/:id", h.Sample.Get)
			public.GET("/samples/:id/chain-of-custody", h.Sample.CustodyChain)
			public.GET("/test-plans", h.TestPlan.List)
			public.GET("/test-plans/:id", h.TestPlan.Get)
			public.GET("/test-plans/:id/results/export", h.TestPlan.ExportResults)
			public.GET("/test-standards", h.TestPlan.ListStandards)
			public.GET("/reports", h.Report.List)
			public.GET("/reports/:id", h.Report.Get)
			public.GET("/reports/:id/download", h.Report.Download)
			public.GET("/certifications", h.Certification.List)
			public.GET("/certifications/:id", h.Certification.Get)
			public.GET("/certifications/:id/download", h.Certification.Download)
			public.GET("/lab-facilities", h.LabFacility.List)
			public.GET("/lab-facilities/:id", h.LabFacility.Get)
			public.GET("/lab-facilities/:id/workload", h.LabFacility.Workload)
			public.GET("/dashboard/stats", h.Dashboard.Stats)
			public.GET("/dashboard/kpis", h.Dashboard.KPIs)
			public.GET("/dashboard/recent-activity", h.Dashboard.RecentActivity)
			public.GET("/dashboard/standards-summary", h.Dashboard.StandardsSummary)
			public.GET("/dashboard/lab-utilization", h.Dashboard.LabUtilization)
			public.GET("/dashboard/upcoming-deadlines", h.Dashboard.UpcomingDeadlines)
		}

		// 需要认证的接口
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(secret, rdb))
		{
			// 当前用户
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.PUT("/auth/profile", h.Auth.UpdateProfile)
			authorized.PUT("/auth/change-password", h.Auth.ChangePassword)
			authorized.POST("/auth/logout", h.Auth.Logout)

			// 委托请求
			requests := authorized.Group("/service-requests")
			{
				requests.POST("", h.ServiceRequest.Create)
				requests.PUT("/:id", h.ServiceRequest.Update)
				requests.DELETE("/:id", middleware.RequireRole("lab_manager"), h.ServiceRequest.Delete)
				requests.POST("/:id/submit", h.ServiceRequest.Submit)
				requests.POST("/:id/approve", middleware.RequireRole("lab_manager"), h.ServiceRequest.Approve)
			}

			// 样品
			samples := authorized.Group("/samples")
			{
				samples.POST("", h.Sample.Create)
				samples.PUT("/:id", h.Sample.Update)
				samples.POST("/:id/receive", h.Sample.Receive)
				samples.POST("/:id/transfer", h.Sample.Transfer)
				samples.DELETE("/:id", middleware.RequireRole("lab_manager"), h.Sample.Delete)
			}

			// 测试计划
			plans := authorized.Group("/test-plans")
			{
				plans.POST("", h.TestPlan.Create)
				plans.PUT("/:id", h.TestPlan.Update)
				plans.DELETE("/:id", middleware.RequireRole("lab_manager"), h.TestPlan.Delete)
				plans.POST("/:id/results", h.TestPlan.AddResult)
				plans.PUT("/:id/results/:resultId", h.TestPlan.UpdateResult)
				plans.POST("/:id/results/:resultId/verify",
					middleware.RequireRole("lab_manager", "quality_engineer"), h.TestPlan.VerifyResult)
				plans.POST("/:id/complete",
					middleware.RequireRole("lab_manager", "quality_engineer"), h.TestPlan.Complete)
			}

			// 报告
			reports := authorized.Group("/reports")
			{
				reports.POST("", h.Report.Create)
				reports.PUT("/:id", h.Report.Update)
				reports.DELETE("/:id", middleware.RequireRole("lab_manager"), h.Report.Delete)
				reports.POST("/:id/submit", h.Report.Submit)
				reports.POST("/:id/review",
					middleware.RequireRole("lab_manager", "quality_engineer"), h.Report.Review)
				reports.POST("/:id/issue", middleware.RequireRole("lab_manager"), h.Report.Issue)
			}

			// 证书
			certs := authorized.Group("/certifications")
			{
				certs.POST("", middleware.RequireRole("lab_manager", "quality_engineer"), h.Certification.Create)
				certs.PUT("/:id", middleware.RequireRole("lab_manager", "quality_engineer"), h.Certification.Update)
				certs.POST("/:id/issue", middleware.RequireRole("lab_manager"), h.Certification.Issue)
				certs.POST("/:id/revoke", middleware.RequireRole("admin"), h.Certification.Revoke)
			}

			// 实验室
			labs := authorized.Group("/lab-facilities")
			{
				labs.POST("", middleware.RequireRole("admin"), h.LabFacility.Create)
				labs.PUT("/:id", middleware.RequireRole("lab_manager"), h.LabFacility.Update)
				labs.DELETE("/:id", middleware.RequireRole("admin"), h.LabFacility.Delete)
			}

			// 通知
			notifications := authorized.Group("/notifications")
			{
				notifications.GET("", h.Notification.List)
				notifications.POST("/:id/read", h.Notification.MarkRead)
				notifications.POST("/read-all", h.Notification.MarkAllRead)
			}
		}
	}
}

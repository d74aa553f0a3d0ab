package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"assurify/internal/automation"
	"assurify/internal/config"
	"assurify/internal/handlers"
	"assurify/internal/models"
	"assurify/internal/observability"
	"assurify/internal/services"
	"assurify/pkg/assets"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	gormtracing "gorm.io/plugin/opentelemetry/tracing"
)

func main() {
	// 读取配置文件（默认 ./config.yml）并初始化日志
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()

	cfg := config.Load()
	if err := config.InitLogger(cfg); err != nil {
		logrus.Warnf("init logger: %v", err)
	}
	appLogger := logrus.StandardLogger()

	// OpenTelemetry 追踪
	shutdownTracing, err := observability.SetupTracing(context.Background(), cfg)
	if err != nil {
		appLogger.Warnf("setup tracing: %v", err)
		shutdownTracing = func(context.Context) error { return nil }
	}

	// 构建 Postgres DSN 并连接数据库
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		cfg.Database.Host, cfg.Database.User, cfg.Database.Password, cfg.Database.Name, cfg.Database.Port,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		appLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if cfg.Monitoring.Tracing.Enabled {
		if err := db.Use(gormtracing.NewPlugin()); err != nil {
			appLogger.Warnf("gorm tracing plugin: %v", err)
		}
	}

	// 根据需要迁移（此处默认迁移，生产可改为条件控制）
	if err := db.AutoMigrate(
		&models.User{}, &models.Customer{}, &models.Policy{},
		&models.AutomatedTask{}, &models.ReminderLogEntry{}, &models.AutomationRun{},
	); err != nil {
		appLogger.Fatalf("Failed to migrate database: %v", err)
	}

	// 资产客户端与规则/模板来源：续保规则常驻内存，缴费侧走外部资产
	assetClient := assets.NewClient(&assets.Config{
		BaseURL:    cfg.Automation.Assets.BaseURL,
		Timeout:    cfg.Automation.Assets.Timeout,
		MaxRetries: cfg.Automation.Assets.MaxRetries,
	}, appLogger)

	engine := automation.NewEngine(automation.EngineConfig{
		RenewalRules:   automation.NewStaticRuleProvider(automation.DefaultRenewalRules()),
		PaymentRules:   automation.NewAssetRuleProvider(assetClient, cfg.Automation.Assets.PaymentRulesPath),
		EmailTemplates: automation.NewAssetEmailTemplates(assetClient, cfg.Automation.Assets.EmailTemplatesPath),
		SMSTemplates:   automation.NewAssetSMSTemplates(assetClient, cfg.Automation.Assets.SMSTemplatesPath),
		Dispatcher:     automation.NewLogDispatcher(appLogger),
		Logger:         appLogger,
	})

	// 任务事件推送
	hub := services.NewTaskHub()
	go hub.Run()

	// 初始化业务服务
	reminderService := services.NewReminderService(db, appLogger, engine, hub)
	customerService := services.NewCustomerService(db, appLogger)

	// 初始化 Gin
	if cfg.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())
	if cfg.Monitoring.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Monitoring.Tracing.ServiceName))
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC(), "version": "v1.0.0"})
	})

	// API 路由组
	automationHandler := handlers.NewAutomationHandler(reminderService, hub)
	api := r.Group("/api")
	handlers.RegisterAutomationRoutes(api, automationHandler)
	handlers.RegisterCustomerRoutes(api, handlers.NewCustomerHandler(customerService, appLogger))
	if cfg.Monitoring.Enabled {
		r.GET(cfg.Monitoring.MetricsPath, automationHandler.Metrics)
	}

	// 启动服务器
	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.Port), Handler: r}
	go func() {
		appLogger.Infof("Starting server on port %d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Fatalf("Server forced to shutdown: %v", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		appLogger.Warnf("shutdown tracing: %v", err)
	}
	appLogger.Info("Server exited")
}

// corsMiddleware CORS 中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

package main

import (
	"github.com/blues/cps/internal/auth"
	"github.com/blues/cps/internal/config"
	"github.com/blues/cps/internal/database"
	"github.com/blues/cps/internal/logger"
	"github.com/blues/cps/internal/notify"
	"github.com/blues/cps/internal/paypal"
	"github.com/blues/cps/internal/router"
	"github.com/blues/cps/internal/scheduler"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	if cfg.Log.Output == "file" {
		fileLogger, err := logger.NewWithFileRotation(logger.ParseLogLevel(cfg.Log.Level), cfg.Log.File)
		if err != nil {
			logger.Fatal("Failed to initialize file logger: %v", err)
		}
		logger.SetDefaultLogger(fileLogger)
	}
	defer logger.Sync()

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 初始化Redis会话存储
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	sessions := auth.NewSessionStore(rdb, cfg.JWT.RefreshTTL())
	tokens := auth.NewTokenManager(cfg.JWT)

	// 初始化PayPal客户端
	paypalClient := paypal.New(cfg.PayPal)

	// 初始化通知派发器
	notifier, err := notify.NewDispatcher(cfg.Notify.PoolSize, notify.LogSender{})
	if err != nil {
		logger.Fatal("Failed to initialize notifier: %v", err)
	}
	defer notifier.Close()

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(db, paypalClient, tokens, sessions, notifier, cfg)

	// 启动定时任务
	manager := scheduler.Start(db, cfg)
	defer manager.Stop()

	// 启动服务器
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}

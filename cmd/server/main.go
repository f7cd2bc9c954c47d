package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"gardops/backend/config"
	"gardops/backend/internal/api/handler"
	"gardops/backend/internal/api/router"
	"gardops/backend/internal/dto"
	"gardops/backend/internal/realtime"
	"gardops/backend/internal/repository"
	"gardops/backend/internal/service"
	"gardops/backend/pkg/database"
	"gardops/backend/pkg/jwt"
	applogger "gardops/backend/pkg/logger"
	"gardops/backend/pkg/redis"
	"gardops/backend/pkg/tracing"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("strict_covered", cfg.Coverage.StrictCovered),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 3. 链路追踪（未启用时为空实现）
	shutdownTracing, err := tracing.Init(ctx, &cfg.Tracing, logger)
	if err != nil {
		logger.Fatal("初始化链路追踪失败", zap.Error(err))
	}

	// 4. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 4.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 5. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单、登录限流与跨实例推送将不可用", zap.Error(err))
		rdb = nil
	}

	// 6. 自定义校验规则
	if err := dto.RegisterValidators(); err != nil {
		logger.Fatal("注册校验规则失败", zap.Error(err))
	}

	// 7. 初始化 JWT 管理器
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 8. 变更提示中心
	hub := newHub(ctx, cfg, rdb, logger)

	// 9. 依赖注入: Repository → Service → Handler
	deps := service.Deps{
		Config:   cfg,
		Repo:     repository.NewRepository(db),
		JWT:      jwtMgr,
		Notifier: hub,
		Logger:   logger,
	}
	if rdb != nil {
		deps.Blacklist = rdb
	}
	svc := service.NewService(deps)

	if cfg.Bootstrap.Enabled() {
		if err := svc.Auth.EnsureBootstrapAdmin(ctx, &cfg.Bootstrap); err != nil {
			logger.Fatal("初始化管理员失败", zap.Error(err))
		}
	}

	h := handler.NewHandler(svc, hub, cfg)

	// 10. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 11. 启动 HTTP 服务器（优雅关闭）
	// SSE 为长连接，不设置 WriteTimeout
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 12. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	// 先停止 Redis 转发，SSE 连接随请求 context 结束
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("链路追踪关闭异常", zap.Error(err))
	}

	// 关闭数据库连接
	if closeDB, _ := db.DB(); closeDB != nil {
		closeDB.Close()
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}

// newHub 有 Redis 时经 pub/sub 跨实例转发，订阅失败则退回进程内分发
func newHub(ctx context.Context, cfg *config.Config, rdb *redis.Client, logger *zap.Logger) *realtime.Hub {
	if rdb == nil {
		return realtime.NewHub(nil, cfg.Redis.Channel, logger)
	}
	hub := realtime.NewHub(rdb, cfg.Redis.Channel, logger)
	if err := hub.Forward(ctx); err != nil {
		logger.Warn("订阅变更频道失败，仅在本实例推送", zap.Error(err))
		return realtime.NewHub(nil, cfg.Redis.Channel, logger)
	}
	return hub
}

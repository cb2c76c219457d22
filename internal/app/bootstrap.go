package app

import (
	"errors"
	"strings"
	"time"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/config"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/logger"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/models"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/provider"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/router"
	"github.com/damsblt/only-you-coaching-app-sub005/internal/worker"
)

// PrepareDatabase 连接数据库、迁移表结构并初始化默认管理员
func PrepareDatabase(cfg *config.Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, cfg.Database.Debug); err != nil {
		return err
	}
	if err := models.AutoMigrate(); err != nil {
		return err
	}

	// release 模式下未配置密码时不创建默认管理员
	if cfg.Server.Mode == "release" && strings.TrimSpace(cfg.Admin.DefaultPassword) == "" {
		logger.Warnw("default_admin_skipped", "reason", "admin.default_password empty")
		return nil
	}
	if err := models.InitDefaultAdmin(cfg.Admin.DefaultUsername, cfg.Admin.DefaultPassword, cfg.Admin.DefaultEmail); err != nil {
		logger.Warnw("default_admin_init_failed", "error", err)
	}
	return nil
}

// SeedDemoData 写入演示优惠码
func SeedDemoData(now time.Time) (int, error) {
	if models.DB == nil {
		return 0, errors.New("database not initialized")
	}
	return models.SeedDemoPromoCodes(now)
}

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	mode, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}

	container := provider.NewContainer(cfg)

	var services []Service

	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		services = append(services, NewHTTPService(cfg.Server, engine))
	}

	// 队列关闭时优惠券镜像同步执行，all 模式下不启动 worker
	if mode == ModeWorker || (mode == ModeAll && cfg.Queue.Enabled) {
		consumer := worker.NewConsumer(container)
		workerService, err := worker.NewService(&cfg.Queue, consumer)
		if err != nil {
			_ = container.Close()
			return nil, err
		}
		services = append(services, workerService)
	} else if mode == ModeAll {
		logger.Infow("worker_skipped", "reason", "queue disabled")
	}

	if len(services) == 0 {
		_ = container.Close()
		return nil, errors.New("no services initialized (check mode and config)")
	}

	runner := NewRunner(services...)
	runner.OnShutdown(container.Close)
	return runner, nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start", "addr", opts.Config.Server.Addr(), "mode", opts.Mode, "services", runner.Names())
	return RunWithOptions(runner, opts)
}

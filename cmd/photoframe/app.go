package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/donkeykey/AIPhotoFrame/artifacts"
	"github.com/donkeykey/AIPhotoFrame/config"
	"github.com/donkeykey/AIPhotoFrame/display"
	"github.com/donkeykey/AIPhotoFrame/frame"
	"github.com/donkeykey/AIPhotoFrame/internal/metrics"
	"github.com/donkeykey/AIPhotoFrame/internal/telemetry"
	"github.com/donkeykey/AIPhotoFrame/synth"
)

// =============================================================================
// 🧩 组件装配
// =============================================================================

// app 持有一次进程运行所需的全部组件，在 main 中构造一次
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	store     *artifacts.Store
	ctrl      *frame.Controller
	metrics   *metrics.Collector
	telemetry *telemetry.Providers
}

// newApp 按配置装配存储、合成器、渲染目标与控制器，并执行一次启动清理
func newApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	providers, err := telemetry.Init(cfg.Telemetry, Version, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	a.telemetry = providers

	if cfg.Metrics.Enabled {
		a.metrics = metrics.NewCollector("photoframe", logger)
	}

	store, err := artifacts.NewStore(cfg.Image.OutputDir, cfg.Image.MaxStored, artifacts.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("artifact store: %w", err)
	}
	a.store = store

	s, err := synth.New(cfg.Synthesizer, logger)
	if err != nil {
		return nil, fmt.Errorf("synthesizer: %w", err)
	}

	target, err := display.New(cfg.Render, cfg.Display, logger)
	if err != nil {
		return nil, fmt.Errorf("render target: %w", err)
	}

	a.ctrl = frame.NewController(s, store, target,
		frame.WithResolution(cfg.Display.Width(), cfg.Display.Height()),
		frame.WithSteps(cfg.Synthesizer.Steps),
		frame.WithGuidanceScale(cfg.Synthesizer.GuidanceScale),
		frame.WithMetrics(a.metrics),
		frame.WithLogger(logger),
	)

	logger.Info("AI Photo Frame 初始化完成",
		zap.String("version", Version),
		zap.String("provider", s.Name()),
		zap.String("render", target.Name()),
		zap.String("output_dir", store.Dir()),
		zap.Int("max_stored", store.MaxStored()))

	// 启动时执行一次保留清理
	if _, err := store.Cleanup(context.Background()); err != nil {
		logger.Warn("启动清理时出现错误", zap.Error(err))
	}

	return a, nil
}

// close 刷新遥测数据
func (a *app) close() {
	if a.telemetry == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.telemetry.Shutdown(ctx); err != nil {
		a.logger.Warn("telemetry shutdown failed", zap.Error(err))
	}
}

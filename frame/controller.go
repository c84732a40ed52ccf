package frame

import (
	"context"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/donkeykey/AIPhotoFrame/artifacts"
	"github.com/donkeykey/AIPhotoFrame/display"
	"github.com/donkeykey/AIPhotoFrame/internal/ctxkeys"
	"github.com/donkeykey/AIPhotoFrame/internal/metrics"
	"github.com/donkeykey/AIPhotoFrame/internal/telemetry"
	"github.com/donkeykey/AIPhotoFrame/synth"
	"github.com/donkeykey/AIPhotoFrame/types"
)

// =============================================================================
// 🖼️ Frame Controller
// =============================================================================

// Controller 协调一次生成、存储与显示.
type Controller struct {
	synth  synth.Synthesizer
	store  *artifacts.Store
	target display.Target

	width    int
	height   int
	steps    int
	guidance float64

	metrics *metrics.Collector
	tracer  trace.Tracer
	logger  *zap.Logger
	now     func() time.Time
}

// Option 配置 Controller.
type Option func(*Controller)

// WithResolution 设置合成与渲染分辨率.
func WithResolution(width, height int) Option {
	return func(c *Controller) {
		c.width = width
		c.height = height
	}
}

// WithSteps 设置推理步数.
func WithSteps(steps int) Option {
	return func(c *Controller) { c.steps = steps }
}

// WithGuidanceScale 设置引导系数.
func WithGuidanceScale(g float64) Option {
	return func(c *Controller) { c.guidance = g }
}

// WithMetrics 设置指标收集器.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithLogger 设置日志记录器.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock 设置时间源，用于产物命名.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// NewController 创建控制器，默认分辨率 640x400、20 步、引导系数 7.5.
func NewController(s synth.Synthesizer, store *artifacts.Store, target display.Target, opts ...Option) *Controller {
	c := &Controller{
		synth:    s,
		store:    store,
		target:   target,
		width:    640,
		height:   400,
		steps:    20,
		guidance: 7.5,
		tracer:   telemetry.Tracer(),
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("component", "frame"))
	return c
}

// Resolution 返回配置分辨率.
func (c *Controller) Resolution() (int, int) {
	return c.width, c.height
}

// Generate 合成一张图像并保存，displayImmediately 为真时同时显示.
// 成功返回产物路径；失败返回空路径与 SYNTHESIS_FAILED / STORE_WRITE_FAILED.
func (c *Controller) Generate(ctx context.Context, prompt string, displayImmediately bool) (string, error) {
	ctx, span := c.tracer.Start(ctx, "frame.generate", trace.WithAttributes(
		attribute.String("frame.prompt", prompt),
		attribute.Bool("frame.display", displayImmediately),
		attribute.String("synth.provider", c.synth.Name()),
	))
	defer span.End()

	path := c.store.NextPath(c.now())
	logger := c.logger.With(ctxkeys.LogFields(ctx)...)

	logger.Info("开始生成图像",
		zap.String("prompt", prompt),
		zap.String("path", path),
		zap.Int("width", c.width),
		zap.Int("height", c.height))

	start := time.Now()
	img, err := c.synth.Synthesize(ctx, &synth.Request{
		Prompt:        prompt,
		Width:         c.width,
		Height:        c.height,
		Steps:         c.steps,
		GuidanceScale: c.guidance,
	})
	elapsed := time.Since(start)
	if err == nil && img == nil {
		err = errors.New("synthesizer returned no image")
	}
	c.metrics.RecordSynthesis(c.synth.Name(), err == nil, elapsed)
	if err != nil {
		err = asSynthesisError(c.synth.Name(), err)
		logger.Error("图像生成失败", zap.Duration("duration", elapsed), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "synthesis failed")
		return "", err
	}

	artifact, err := c.store.Save(ctx, path, img)
	if err != nil {
		if !types.IsCode(err, types.ErrStoreWriteFailed) {
			err = types.NewError(types.ErrStoreWriteFailed, "failed to save image").WithPath(path).WithCause(err)
		}
		logger.Error("图像保存失败", zap.String("path", path), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "store failed")
		return "", err
	}

	span.SetAttributes(attribute.String("frame.path", artifact.Path))
	logger.Info("图像生成完成",
		zap.String("path", artifact.Path),
		zap.Duration("duration", elapsed))

	if displayImmediately {
		if err := c.render(ctx, img); err != nil {
			// 渲染失败不影响本次生成结果
			span.AddEvent("render failed", trace.WithAttributes(attribute.String("error", err.Error())))
			logger.Warn("图像已保存但显示失败", zap.String("path", artifact.Path), zap.Error(err))
		}
	}

	return artifact.Path, nil
}

// GenerateOnly 只生成不显示.
func (c *Controller) GenerateOnly(ctx context.Context, prompt string) (string, error) {
	return c.Generate(ctx, prompt, false)
}

// Display 显示一张已有图像.
// 文件不存在时返回 NOT_FOUND 且不调用渲染目标.
func (c *Controller) Display(ctx context.Context, path string) error {
	ctx, span := c.tracer.Start(ctx, "frame.display", trace.WithAttributes(
		attribute.String("frame.path", path),
	))
	defer span.End()

	err := c.display(ctx, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(types.GetErrorCode(err)))
		c.logger.Error("显示失败", zap.String("path", path), zap.Error(err))
		return err
	}

	c.logger.Info("图像已显示", zap.String("path", path))
	return nil
}

func (c *Controller) display(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return types.NewNotFoundError(path)
		}
		return types.NewError(types.ErrInvalidImage, "cannot open image").WithPath(path).WithCause(err)
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil && info.IsDir() {
		return types.NewError(types.ErrInvalidImage, "path is a directory").WithPath(path)
	}

	img, format, err := image.Decode(f)
	if err != nil {
		return types.NewError(types.ErrInvalidImage, "cannot decode image").WithPath(path).WithCause(err)
	}
	c.logger.Debug("图像已解码",
		zap.String("format", format),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()))

	return c.render(ctx, img)
}

// render 缩放到配置分辨率后交给渲染目标.
func (c *Controller) render(ctx context.Context, img image.Image) error {
	fitted := display.Fit(img, c.width, c.height)

	err := c.target.Render(ctx, fitted)
	c.metrics.RecordRender(c.target.Name(), err == nil)
	if err != nil {
		if !types.IsCode(err, types.ErrRenderFailed) {
			err = types.NewRenderError(c.target.Name(), err)
		}
		return err
	}
	return nil
}

// asSynthesisError 保证合成失败总是以 SYNTHESIS_FAILED 返回.
func asSynthesisError(provider string, err error) error {
	if types.IsCode(err, types.ErrSynthesisFailed) {
		return err
	}
	return types.NewSynthesisError(provider, err)
}

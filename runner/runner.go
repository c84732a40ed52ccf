package runner

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/donkeykey/AIPhotoFrame/artifacts"
	"github.com/donkeykey/AIPhotoFrame/config"
	"github.com/donkeykey/AIPhotoFrame/internal/ctxkeys"
	"github.com/donkeykey/AIPhotoFrame/internal/metrics"
	"github.com/donkeykey/AIPhotoFrame/internal/telemetry"
	"github.com/donkeykey/AIPhotoFrame/types"
)

// =============================================================================
// 🔁 Continuous Runner
// =============================================================================

// Generator 生成并（可选）显示一张图像，frame.Controller 实现该接口
type Generator interface {
	Generate(ctx context.Context, prompt string, displayImmediately bool) (string, error)
}

// Retention 产物保留策略，artifacts.Store 实现该接口
type Retention interface {
	Cleanup(ctx context.Context) (int, error)
	List(ctx context.Context) ([]artifacts.Artifact, error)
}

// Sleeper 执行退避等待，不可取消
type Sleeper func(time.Duration)

// Config 运行器配置
type Config struct {
	Enabled        bool
	Prompts        []string
	FailureBackoff time.Duration
	ErrorBackoff   time.Duration
	ProgressEvery  int
}

// ConfigFrom 从应用配置中提取运行器配置
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Enabled:        cfg.ContinuousMode.Enabled,
		Prompts:        cfg.ContinuousMode.Prompts,
		FailureBackoff: cfg.Runner.FailureBackoff,
		ErrorBackoff:   cfg.Runner.ErrorBackoff,
		ProgressEvery:  cfg.Runner.ProgressEvery,
	}
}

// CycleRecord 单个周期的记录，不持久化
type CycleRecord struct {
	Index    int           `json:"index"`
	Prompt   string        `json:"prompt"`
	Outcome  Outcome       `json:"outcome"`
	Duration time.Duration `json:"duration"`
	Path     string        `json:"path,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// Snapshot 运行器状态快照，用于 /status
type Snapshot struct {
	RunID     string       `json:"run_id"`
	State     State        `json:"state"`
	StartedAt time.Time    `json:"started_at,omitempty"`
	Cycles    int          `json:"cycles"`
	Successes int          `json:"successes"`
	Failures  int          `json:"failures"`
	Errors    int          `json:"errors"`
	LastCycle *CycleRecord `json:"last_cycle,omitempty"`
}

// Runner 连续模式运行器
type Runner struct {
	gen   Generator
	store Retention
	cfg   Config

	sleep   Sleeper
	rng     *rand.Rand
	signals []os.Signal
	metrics *metrics.Collector
	tracer  trace.Tracer
	logger  *zap.Logger

	stopRequested atomic.Bool

	mu    sync.RWMutex
	state State
	stats Snapshot
}

// Option 配置 Runner
type Option func(*Runner)

// WithSleeper 替换退避等待实现
func WithSleeper(s Sleeper) Option {
	return func(r *Runner) {
		if s != nil {
			r.sleep = s
		}
	}
}

// WithRand 设置提示词选择使用的随机源
func WithRand(rng *rand.Rand) Option {
	return func(r *Runner) {
		if rng != nil {
			r.rng = rng
		}
	}
}

// WithSignals 在 Run 期间把给定信号转换为 Stop 调用
func WithSignals(sigs ...os.Signal) Option {
	return func(r *Runner) { r.signals = sigs }
}

// WithMetrics 设置指标收集器
func WithMetrics(m *metrics.Collector) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithLogger 设置日志记录器
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New 创建运行器
func New(gen Generator, store Retention, cfg Config, opts ...Option) *Runner {
	r := &Runner{
		gen:    gen,
		store:  store,
		cfg:    cfg,
		sleep:  time.Sleep,
		rng:    rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)),
		tracer: telemetry.Tracer(),
		logger: zap.NewNop(),
		state:  StateIdle,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.stats.RunID = uuid.NewString()
	r.logger = r.logger.With(
		zap.String("component", "runner"),
		zap.String("run_id", r.stats.RunID),
	)
	return r
}

// State 返回当前状态
func (r *Runner) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Snapshot 返回当前统计快照
func (r *Runner) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := r.stats
	snap.State = r.state
	if r.stats.LastCycle != nil {
		last := *r.stats.LastCycle
		snap.LastCycle = &last
	}
	return snap
}

// Stop 请求停止，在下一个周期开始前生效
func (r *Runner) Stop() {
	r.stopRequested.Store(true)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateRunning {
		r.state = StateStopping
		r.logger.Info("收到停止请求，当前周期结束后退出")
	}
}

func (r *Runner) transition(to State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !CanTransition(r.state, to) {
		return fmt.Errorf("invalid runner state transition: %s -> %s", r.state, to)
	}
	r.state = to
	return nil
}

// Run 运行连续模式直到 Stop 被调用或 ctx 被取消.
// 连续模式关闭时返回 CONTINUOUS_DISABLED，提示词为空时返回 CONFIG_INVALID.
func (r *Runner) Run(ctx context.Context) error {
	if !r.cfg.Enabled {
		r.logger.Warn("连续模式已在配置中关闭")
		return types.NewError(types.ErrContinuousDisabled, "continuous mode is disabled in configuration")
	}
	if len(r.cfg.Prompts) == 0 {
		return types.NewError(types.ErrConfigInvalid, "continuous_mode.prompts must not be empty")
	}
	if err := r.transition(StateRunning); err != nil {
		return fmt.Errorf("runner cannot be started again: %w", err)
	}

	r.mu.Lock()
	r.stats.StartedAt = time.Now()
	r.mu.Unlock()

	if len(r.signals) > 0 {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, r.signals...)
		done := make(chan struct{})
		defer func() {
			signal.Stop(sigCh)
			close(done)
		}()
		go func() {
			select {
			case sig := <-sigCh:
				r.logger.Info("收到信号", zap.String("signal", sig.String()))
				r.Stop()
			case <-done:
			}
		}()
	}

	r.metrics.SetRunnerRunning(true)
	defer r.metrics.SetRunnerRunning(false)

	r.logger.Info("连续模式启动",
		zap.Int("prompts", len(r.cfg.Prompts)),
		zap.Duration("failure_backoff", r.cfg.FailureBackoff),
		zap.Duration("error_backoff", r.cfg.ErrorBackoff))

	cycles := 0
	for !r.stopRequested.Load() && ctx.Err() == nil {
		cycles++
		rec := r.runCycle(ctx, cycles)
		r.record(rec)
		if ctx.Err() != nil {
			break
		}

		switch rec.Outcome {
		case OutcomeFailure:
			r.backoff(string(OutcomeFailure), r.cfg.FailureBackoff)
		case OutcomeError:
			r.backoff(string(OutcomeError), r.cfg.ErrorBackoff)
		}

		r.cleanup(ctx)

		if r.cfg.ProgressEvery > 0 && cycles%r.cfg.ProgressEvery == 0 {
			snap := r.Snapshot()
			r.logger.Info("进度",
				zap.Int("cycles", snap.Cycles),
				zap.Int("successes", snap.Successes),
				zap.Int("failures", snap.Failures),
				zap.Int("errors", snap.Errors))
		}
	}

	if err := r.transition(StateStopped); err != nil {
		r.logger.Error("状态转换失败", zap.Error(err))
	}
	r.logger.Info("连续模式结束", zap.Int("total_cycles", cycles))
	return nil
}

// runCycle 执行一个周期，周期内的 panic 被转换为 OutcomeError
func (r *Runner) runCycle(ctx context.Context, index int) (rec CycleRecord) {
	prompt := r.cfg.Prompts[r.rng.IntN(len(r.cfg.Prompts))]
	rec = CycleRecord{Index: index, Prompt: prompt}

	ctx = ctxkeys.WithCycle(ctxkeys.WithRunID(ctx, r.stats.RunID), index)
	ctx, span := r.tracer.Start(ctx, "runner.cycle", trace.WithAttributes(
		attribute.Int("runner.cycle", index),
		attribute.String("runner.prompt", prompt),
	))
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			rec.Outcome = OutcomeError
			rec.Error = fmt.Sprintf("panic: %v", p)
			r.logger.Error("周期发生 panic", zap.Int("cycle", index), zap.Any("panic", p), zap.Stack("stack"))
		}
		rec.Duration = time.Since(start)

		span.SetAttributes(attribute.String("runner.outcome", string(rec.Outcome)))
		if rec.Outcome != OutcomeSuccess {
			span.SetStatus(codes.Error, rec.Error)
		}
		span.End()
	}()

	r.logger.Info("开始周期", zap.Int("cycle", index), zap.String("prompt", prompt))

	path, err := r.gen.Generate(ctx, prompt, true)
	if err != nil {
		rec.Outcome = classify(err)
		rec.Error = err.Error()
		span.RecordError(err)
		r.logger.Warn("周期失败",
			zap.Int("cycle", index),
			zap.String("outcome", string(rec.Outcome)),
			zap.Error(err))
		return rec
	}

	rec.Outcome = OutcomeSuccess
	rec.Path = path
	r.logger.Info("周期完成", zap.Int("cycle", index), zap.String("path", path))
	return rec
}

// classify 合成与保存失败归为 failure，其余归为 error
func classify(err error) Outcome {
	switch types.GetErrorCode(err) {
	case types.ErrSynthesisFailed, types.ErrStoreWriteFailed:
		return OutcomeFailure
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return OutcomeFailure
	}
	return OutcomeError
}

func (r *Runner) record(rec CycleRecord) {
	r.mu.Lock()
	r.stats.Cycles++
	switch rec.Outcome {
	case OutcomeSuccess:
		r.stats.Successes++
	case OutcomeFailure:
		r.stats.Failures++
	default:
		r.stats.Errors++
	}
	r.stats.LastCycle = &rec
	r.mu.Unlock()

	r.metrics.RecordCycle(string(rec.Outcome), rec.Duration)
}

func (r *Runner) backoff(kind string, d time.Duration) {
	if d <= 0 {
		return
	}
	r.logger.Info("退避等待", zap.String("kind", kind), zap.Duration("delay", d))
	r.metrics.RecordBackoff(kind, d)
	r.sleep(d)
}

// cleanup 执行保留策略，错误与 panic 只记录日志
func (r *Runner) cleanup(ctx context.Context) {
	if r.store == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("清理旧图像时发生 panic", zap.Any("panic", p), zap.Stack("stack"))
		}
	}()
	deleted, err := r.store.Cleanup(ctx)
	if err != nil {
		r.logger.Warn("清理旧图像时出现错误", zap.Error(err))
	}

	if list, err := r.store.List(ctx); err == nil {
		r.metrics.RecordCleanup(deleted, len(list))
	}
}

package display

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/donkeykey/AIPhotoFrame/types"
)

// ExecConfig 配置外部驱动目标.
type ExecConfig struct {
	// Command 为 argv 模板，支持 {input} {width} {height} {border}
	Command []string
	Width   int
	Height  int
	Border  string
	// TempDir 为中间 PNG 文件目录（默认 os.TempDir()）
	TempDir string
	Timeout time.Duration
}

// ExecTarget 把位图写成临时 PNG，再调用外部驱动命令（如 Inky 电子纸脚本）.
type ExecTarget struct {
	cfg    ExecConfig
	logger *zap.Logger
}

// NewExecTarget 创建外部驱动目标.
func NewExecTarget(cfg ExecConfig, logger *zap.Logger) (*ExecTarget, error) {
	if len(cfg.Command) == 0 {
		return nil, types.NewError(types.ErrConfigInvalid, "exec render target requires a command")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecTarget{
		cfg:    cfg,
		logger: logger.With(zap.String("component", "display"), zap.String("target", "exec")),
	}, nil
}

func (t *ExecTarget) Name() string { return "exec" }

// Render 写入临时文件并运行驱动命令，非零退出码视为刷新失败.
func (t *ExecTarget) Render(ctx context.Context, img image.Image) error {
	if img == nil {
		return types.NewRenderError(t.Name(), fmt.Errorf("nil image"))
	}

	f, err := os.CreateTemp(t.cfg.TempDir, "frame-*.png")
	if err != nil {
		return types.NewRenderError(t.Name(), fmt.Errorf("create temp file: %w", err))
	}
	input := f.Name()
	defer os.Remove(input)

	if err := png.Encode(f, img); err != nil {
		f.Close()
		return types.NewRenderError(t.Name(), fmt.Errorf("encode png: %w", err))
	}
	if err := f.Close(); err != nil {
		return types.NewRenderError(t.Name(), err)
	}

	if t.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.Timeout)
		defer cancel()
	}

	r := strings.NewReplacer(
		"{input}", input,
		"{width}", strconv.Itoa(t.cfg.Width),
		"{height}", strconv.Itoa(t.cfg.Height),
		"{border}", t.cfg.Border,
	)
	argv := make([]string, len(t.cfg.Command))
	for i, arg := range t.cfg.Command {
		argv[i] = r.Replace(arg)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		return types.NewRenderError(t.Name(), fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String())))
	}

	t.logger.Info("显示已刷新", zap.Duration("duration", time.Since(start)))
	return nil
}

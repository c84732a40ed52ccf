package synth

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/donkeykey/AIPhotoFrame/types"
)

// ExecConfig 配置本地命令合成器.
type ExecConfig struct {
	// Command 为 argv 模板，支持 {prompt} {width} {height} {steps} {guidance} {seed} {output}
	Command []string
	// Dir 为命令工作目录（可选）
	Dir string
	// TempDir 为中间输出文件目录（默认 os.TempDir()）
	TempDir string
	// Timeout 为单次合成超时，0 表示不限制
	Timeout time.Duration
}

// ExecSynthesizer 通过本地命令执行图像合成.
// 命令需要把图像写入 {output} 指定的路径，非零退出码视为合成失败.
type ExecSynthesizer struct {
	cfg    ExecConfig
	logger *zap.Logger
}

// NewExecSynthesizer 创建本地命令合成器.
func NewExecSynthesizer(cfg ExecConfig, logger *zap.Logger) (*ExecSynthesizer, error) {
	if len(cfg.Command) == 0 {
		return nil, types.NewError(types.ErrConfigInvalid, "exec synthesizer requires a command")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecSynthesizer{
		cfg:    cfg,
		logger: logger.With(zap.String("component", "synth"), zap.String("provider", "exec")),
	}, nil
}

func (s *ExecSynthesizer) Name() string { return "exec" }

// Synthesize 运行外部命令并解码其输出图像.
func (s *ExecSynthesizer) Synthesize(ctx context.Context, req *Request) (image.Image, error) {
	out, err := os.CreateTemp(s.cfg.TempDir, "synth-*.png")
	if err != nil {
		return nil, types.NewSynthesisError(s.Name(), fmt.Errorf("create output file: %w", err))
	}
	outPath := out.Name()
	out.Close()
	defer os.Remove(outPath)

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	argv := expandTemplate(s.cfg.Command, req, outPath)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = s.cfg.Dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	s.logger.Info("开始本地图像合成",
		zap.String("prompt", req.Prompt),
		zap.Int("width", req.Width),
		zap.Int("height", req.Height),
		zap.Int("steps", req.Steps))

	start := time.Now()
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(tail(stderr.String(), maxErrorBody))
		return nil, types.NewSynthesisError(s.Name(), fmt.Errorf("command %s: %w: %s", filepath.Base(argv[0]), err, msg))
	}

	f, err := os.Open(outPath)
	if err != nil {
		return nil, types.NewSynthesisError(s.Name(), fmt.Errorf("open output: %w", err))
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, types.NewSynthesisError(s.Name(), fmt.Errorf("decode output: %w", err))
	}

	s.logger.Info("本地图像合成完成", zap.Duration("duration", time.Since(start)))
	return img, nil
}

// expandTemplate 替换 argv 模板中的占位符，每个参数独立替换，不经过 shell.
func expandTemplate(tmpl []string, req *Request, output string) []string {
	r := strings.NewReplacer(
		"{prompt}", req.Prompt,
		"{width}", strconv.Itoa(req.Width),
		"{height}", strconv.Itoa(req.Height),
		"{steps}", strconv.Itoa(req.Steps),
		"{guidance}", strconv.FormatFloat(req.GuidanceScale, 'f', -1, 64),
		"{seed}", strconv.FormatInt(req.Seed, 10),
		"{output}", output,
	)
	argv := make([]string, len(tmpl))
	for i, arg := range tmpl {
		argv[i] = r.Replace(arg)
	}
	return argv
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

package display

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/donkeykey/AIPhotoFrame/types"
)

// FileTarget 把当前帧原子写入固定路径，供外部显示守护进程读取.
type FileTarget struct {
	path   string
	logger *zap.Logger
}

// NewFileTarget 创建文件目标.
func NewFileTarget(path string, logger *zap.Logger) *FileTarget {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileTarget{
		path:   path,
		logger: logger.With(zap.String("component", "display"), zap.String("target", "file")),
	}
}

func (t *FileTarget) Name() string { return "file" }

// Path 返回当前帧路径.
func (t *FileTarget) Path() string { return t.path }

// Render 先写临时文件再 rename，读者不会看到半帧.
func (t *FileTarget) Render(ctx context.Context, img image.Image) error {
	if err := ctx.Err(); err != nil {
		return types.NewRenderError(t.Name(), err)
	}
	if img == nil {
		return types.NewRenderError(t.Name(), fmt.Errorf("nil image"))
	}

	dir := filepath.Dir(t.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return types.NewRenderError(t.Name(), err)
	}
	tmp, err := os.CreateTemp(dir, ".frame-*.tmp")
	if err != nil {
		return types.NewRenderError(t.Name(), err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return types.NewRenderError(t.Name(), fmt.Errorf("encode png: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return types.NewRenderError(t.Name(), err)
	}
	if err := os.Rename(tmpName, t.path); err != nil {
		return types.NewRenderError(t.Name(), err)
	}

	t.logger.Info("当前帧已写入", zap.String("path", t.path))
	return nil
}

package display

import (
	"context"
	"fmt"
	"image"
	"io"

	"github.com/qeesung/image2ascii/convert"
	"go.uber.org/zap"

	"github.com/donkeykey/AIPhotoFrame/types"
)

// DefaultConsoleColumns 控制台预览的默认列数
const DefaultConsoleColumns = 80

// ConsoleTarget 把位图以 ASCII 字符画输出到 writer，用于没有硬件时的开发调试.
type ConsoleTarget struct {
	w         io.Writer
	columns   int
	colored   bool
	converter *convert.ImageConverter
	logger    *zap.Logger
}

// NewConsoleTarget 创建控制台目标.
func NewConsoleTarget(w io.Writer, columns int, colored bool, logger *zap.Logger) *ConsoleTarget {
	if columns <= 0 {
		columns = DefaultConsoleColumns
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleTarget{
		w:         w,
		columns:   columns,
		colored:   colored,
		converter: convert.NewImageConverter(),
		logger:    logger.With(zap.String("component", "display"), zap.String("target", "console")),
	}
}

func (t *ConsoleTarget) Name() string { return "console" }

// Render 输出字符画.
func (t *ConsoleTarget) Render(ctx context.Context, img image.Image) error {
	if err := ctx.Err(); err != nil {
		return types.NewRenderError(t.Name(), err)
	}
	if img == nil {
		return types.NewRenderError(t.Name(), fmt.Errorf("nil image"))
	}

	cols, rows := t.gridSize(img.Bounds())
	opts := convert.DefaultOptions
	opts.FixedWidth = cols
	opts.FixedHeight = rows
	opts.FitScreen = false
	opts.StretchedScreen = false
	opts.Colored = t.colored

	art := t.converter.Image2ASCIIString(img, &opts)
	if _, err := io.WriteString(t.w, art); err != nil {
		return types.NewRenderError(t.Name(), err)
	}

	t.logger.Debug("控制台预览已输出", zap.Int("columns", cols), zap.Int("rows", rows))
	return nil
}

// gridSize 计算字符网格大小，字符高约为宽的两倍
func (t *ConsoleTarget) gridSize(b image.Rectangle) (int, int) {
	if b.Dx() == 0 {
		return t.columns, 1
	}
	rows := t.columns * b.Dy() / b.Dx() / 2
	if rows < 1 {
		rows = 1
	}
	return t.columns, rows
}

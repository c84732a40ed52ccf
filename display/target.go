package display

import (
	"context"
	"image"

	"github.com/nfnt/resize"
)

// Target 渲染目标接口.
type Target interface {
	// Render 把位图送到显示设备，失败返回 RENDER_FAILED.
	Render(ctx context.Context, img image.Image) error

	// Name 返回目标名称.
	Name() string
}

// Fit 返回恰好 width×height 的位图.
// 尺寸已匹配时原样返回，否则使用 Lanczos3 拉伸缩放.
func Fit(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return img
	}
	return resize.Resize(uint(width), uint(height), img, resize.Lanczos3)
}

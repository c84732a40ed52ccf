// =============================================================================
// 📦 测试数据工厂 - 图像
// =============================================================================
// 提供预定义的测试图像，用于合成器、显示目标与控制器测试
// =============================================================================
package fixtures

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"
)

// 常用颜色
var (
	Black = color.RGBA{A: 255}
	White = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Red   = color.RGBA{R: 255, A: 255}
)

// SolidImage 返回纯色图像
func SolidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// Gradient 返回水平红、垂直绿渐变图像
func Gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 96, A: 255})
		}
	}
	return img
}

// MustPNG 将图像编码为 PNG，失败时 panic
func MustPNG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// WritePNG 将图像写入 path
func WritePNG(t testing.TB, path string, img image.Image) string {
	t.Helper()
	if err := os.WriteFile(path, MustPNG(img), 0644); err != nil {
		t.Fatalf("write png: %v", err)
	}
	return path
}

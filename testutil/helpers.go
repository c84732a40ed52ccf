// =============================================================================
// 🧪 测试辅助函数
// =============================================================================
// 提供通用的测试辅助函数和断言
//
// 使用方法:
//
//	ctx := testutil.TestContext(t)
//	testutil.WriteArtifact(t, dir, "ai_photo_01.png", mtime)
//	testutil.AssertEventuallyTrue(t, func() bool { return condition }, 5*time.Second)
// =============================================================================
package testutil

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/donkeykey/AIPhotoFrame/testutil/fixtures"
)

// =============================================================================
// 🎯 上下文辅助
// =============================================================================

// TestContext 返回带超时的测试上下文
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestContextWithTimeout 返回带自定义超时的测试上下文
func TestContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// CancelledContext 返回已取消的上下文
func CancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// =============================================================================
// 🔍 断言辅助
// =============================================================================

// AssertEventuallyTrue 断言条件最终为真
func AssertEventuallyTrue(t *testing.T, condition func() bool, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Errorf("condition did not become true within %v", timeout)
}

// AssertImageSize 断言位图尺寸
func AssertImageSize(t *testing.T, img image.Image, width, height int) {
	t.Helper()
	if img == nil {
		t.Errorf("expected %dx%d image, got nil", width, height)
		return
	}
	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		t.Errorf("image size mismatch: expected %dx%d, got %dx%d", width, height, b.Dx(), b.Dy())
	}
}

// =============================================================================
// 🗂️ 产物辅助
// =============================================================================

// WriteArtifact 在 dir 下写入一张小 PNG 并设置修改时间，返回完整路径
func WriteArtifact(t testing.TB, dir, name string, mtime time.Time) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, fixtures.MustPNG(fixtures.SolidImage(4, 4, fixtures.Black)), 0644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes artifact: %v", err)
	}
	return path
}

// CountFiles 返回 dir 中匹配 pattern 的文件数
func CountFiles(t testing.TB, dir, pattern string) int {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	return len(matches)
}

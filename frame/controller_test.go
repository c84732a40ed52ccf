package frame

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/donkeykey/AIPhotoFrame/artifacts"
	"github.com/donkeykey/AIPhotoFrame/internal/metrics"
	"github.com/donkeykey/AIPhotoFrame/synth"
	tu "github.com/donkeykey/AIPhotoFrame/testutil"
	"github.com/donkeykey/AIPhotoFrame/testutil/fixtures"
	"github.com/donkeykey/AIPhotoFrame/testutil/mocks"
	"github.com/donkeykey/AIPhotoFrame/types"
)

var fixedNow = time.Date(2024, 3, 1, 12, 30, 45, 0, time.Local)

func newTestController(t *testing.T, s *mocks.MockSynthesizer, target *mocks.MockTarget, opts ...Option) (*Controller, *artifacts.Store) {
	t.Helper()

	store, err := artifacts.NewStore(t.TempDir(), 10)
	require.NoError(t, err)

	base := []Option{
		WithResolution(64, 40),
		WithLogger(zaptest.NewLogger(t)),
		WithClock(func() time.Time { return fixedNow }),
	}
	return NewController(s, store, target, append(base, opts...)...), store
}

func TestController_Generate_DisplaysAtResolution(t *testing.T) {
	// 合成器返回的尺寸与配置不一致，渲染时必须缩放到配置分辨率
	s := mocks.NewMockSynthesizer().WithImage(fixtures.Gradient(128, 128))
	target := mocks.NewMockTarget()
	ctrl, store := newTestController(t, s, target)

	path, err := ctrl.Generate(tu.TestContext(t), "sunset over the sea", true)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(store.Dir(), "ai_photo_20240301_123045.png"), path)
	assert.FileExists(t, path)
	require.Equal(t, 1, target.CallCount())
	tu.AssertImageSize(t, target.Last(), 64, 40)

	calls := s.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "sunset over the sea", calls[0].Prompt)
	assert.Equal(t, 64, calls[0].Width)
	assert.Equal(t, 40, calls[0].Height)
	assert.Equal(t, 20, calls[0].Steps)
	assert.InDelta(t, 7.5, calls[0].GuidanceScale, 1e-9)
}

func TestController_Generate_StoredImageDecodes(t *testing.T) {
	s := mocks.NewMockSynthesizer()
	ctrl, _ := newTestController(t, s, mocks.NewMockTarget())

	path, err := ctrl.GenerateOnly(tu.TestContext(t), "forest")
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, format, err := image.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	tu.AssertImageSize(t, img, 64, 40)
}

func TestController_GenerateOnly_NeverRenders(t *testing.T) {
	target := mocks.NewMockTarget()
	ctrl, _ := newTestController(t, mocks.NewMockSynthesizer(), target)

	path, err := ctrl.Generate(tu.TestContext(t), "mountains", false)
	require.NoError(t, err)
	assert.NotEmpty(t, path)
	assert.Equal(t, 0, target.CallCount())
}

func TestController_Generate_CollidingNamesAreDistinct(t *testing.T) {
	ctrl, store := newTestController(t, mocks.NewMockSynthesizer(), mocks.NewMockTarget())
	ctx := tu.TestContext(t)

	first, err := ctrl.GenerateOnly(ctx, "a")
	require.NoError(t, err)
	second, err := ctrl.GenerateOnly(ctx, "b")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, 2, tu.CountFiles(t, store.Dir(), artifacts.Pattern))
}

func TestController_Generate_SynthesisFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "plain error", err: errors.New("model crashed")},
		{name: "coded error", err: types.NewSynthesisError("mock", errors.New("quota"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mocks.NewMockSynthesizer().WithError(tt.err)
			target := mocks.NewMockTarget()
			ctrl, store := newTestController(t, s, target)

			path, err := ctrl.Generate(tu.TestContext(t), "x", true)
			require.Error(t, err)
			assert.Empty(t, path)
			assert.True(t, types.IsCode(err, types.ErrSynthesisFailed))
			assert.Equal(t, 0, target.CallCount())
			assert.Equal(t, 0, tu.CountFiles(t, store.Dir(), "*"))
		})
	}
}

func TestController_Generate_NilImageIsFailure(t *testing.T) {
	s := mocks.NewMockSynthesizer().WithFunc(func(ctx context.Context, _ *synth.Request) (image.Image, error) {
		return nil, nil
	})
	ctrl, _ := newTestController(t, s, mocks.NewMockTarget())

	_, err := ctrl.GenerateOnly(tu.TestContext(t), "x")
	assert.True(t, types.IsCode(err, types.ErrSynthesisFailed))
}

func TestController_Generate_StoreFailure(t *testing.T) {
	target := mocks.NewMockTarget()
	ctrl, store := newTestController(t, mocks.NewMockSynthesizer(), target)
	// 输出目录被删除后保存必然失败
	require.NoError(t, os.RemoveAll(store.Dir()))

	path, err := ctrl.Generate(tu.TestContext(t), "x", true)
	require.Error(t, err)
	assert.Empty(t, path)
	assert.True(t, types.IsCode(err, types.ErrStoreWriteFailed))
	assert.Equal(t, 0, target.CallCount())
}

func TestController_Generate_RenderFailureIsNotFatal(t *testing.T) {
	target := mocks.NewMockTarget().WithError(errors.New("spi bus busy"))
	collector := metrics.NewCollector("test", zaptest.NewLogger(t))
	ctrl, _ := newTestController(t, mocks.NewMockSynthesizer(), target, WithMetrics(collector))

	path, err := ctrl.Generate(tu.TestContext(t), "x", true)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, 1, target.CallCount())

	assert.Equal(t, 1.0, counterValue(t, collector, "test_renders_total", "failure"))
	assert.Equal(t, 1.0, counterValue(t, collector, "test_synthesis_total", "success"))
}

// counterValue 从注册表中读取 status 标签匹配的计数器值
func counterValue(t *testing.T, c *metrics.Collector, name, status string) float64 {
	t.Helper()

	families, err := c.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "status" && lp.GetValue() == status {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestController_Display(t *testing.T) {
	target := mocks.NewMockTarget()
	ctrl, _ := newTestController(t, mocks.NewMockSynthesizer(), target)

	path := fixtures.WritePNG(t, filepath.Join(t.TempDir(), "photo.png"), fixtures.SolidImage(10, 10, fixtures.Red))

	require.NoError(t, ctrl.Display(tu.TestContext(t), path))
	require.Equal(t, 1, target.CallCount())
	tu.AssertImageSize(t, target.Last(), 64, 40)
}

func TestController_Display_MissingFile(t *testing.T) {
	target := mocks.NewMockTarget()
	ctrl, _ := newTestController(t, mocks.NewMockSynthesizer(), target)

	err := ctrl.Display(tu.TestContext(t), filepath.Join(t.TempDir(), "nope.png"))
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrNotFound))
	assert.Equal(t, 0, target.CallCount())
}

func TestController_Display_InvalidImage(t *testing.T) {
	target := mocks.NewMockTarget()
	ctrl, _ := newTestController(t, mocks.NewMockSynthesizer(), target)

	path := filepath.Join(t.TempDir(), "broken.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0644))

	err := ctrl.Display(tu.TestContext(t), path)
	assert.True(t, types.IsCode(err, types.ErrInvalidImage))
	assert.Equal(t, 0, target.CallCount())
}

func TestController_Display_RenderFailure(t *testing.T) {
	target := mocks.NewMockTarget().WithError(errors.New("driver missing"))
	ctrl, _ := newTestController(t, mocks.NewMockSynthesizer(), target)

	path := fixtures.WritePNG(t, filepath.Join(t.TempDir(), "photo.png"), fixtures.Gradient(64, 40))

	err := ctrl.Display(tu.TestContext(t), path)
	assert.True(t, types.IsCode(err, types.ErrRenderFailed))
}

func TestController_Resolution(t *testing.T) {
	ctrl, _ := newTestController(t, mocks.NewMockSynthesizer(), mocks.NewMockTarget(), WithResolution(600, 448))
	w, h := ctrl.Resolution()
	assert.Equal(t, 600, w)
	assert.Equal(t, 448, h)
}

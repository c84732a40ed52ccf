package display

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/donkeykey/AIPhotoFrame/config"
	"github.com/donkeykey/AIPhotoFrame/types"
)

func gradient(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}
	return img
}

// --- Fit ---

func TestFit(t *testing.T) {
	tests := []struct {
		name       string
		srcW, srcH int
	}{
		{"downscale", 1024, 1024},
		{"upscale", 320, 200},
		{"stretch", 1792, 1024},
		{"portrait", 400, 640},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Fit(gradient(tt.srcW, tt.srcH), 640, 400)
			assert.Equal(t, 640, out.Bounds().Dx())
			assert.Equal(t, 400, out.Bounds().Dy())
		})
	}
}

func TestFit_IdentityWhenMatching(t *testing.T) {
	src := gradient(640, 400)
	assert.Same(t, src.(*image.RGBA), Fit(src, 640, 400).(*image.RGBA))
}

// --- ConsoleTarget ---

func TestConsoleTarget_Render(t *testing.T) {
	var buf bytes.Buffer
	target := NewConsoleTarget(&buf, 40, false, zaptest.NewLogger(t))

	require.NoError(t, target.Render(context.Background(), gradient(640, 400)))

	out := buf.String()
	assert.NotEmpty(t, out)
	assert.Contains(t, out, "\n")
	assert.Equal(t, "console", target.Name())
}

func TestConsoleTarget_GridSize(t *testing.T) {
	target := NewConsoleTarget(&bytes.Buffer{}, 80, false, nil)

	cols, rows := target.gridSize(image.Rect(0, 0, 640, 400))
	assert.Equal(t, 80, cols)
	assert.Equal(t, 25, rows)

	_, rows = target.gridSize(image.Rect(0, 0, 10000, 1))
	assert.Equal(t, 1, rows)
}

func TestConsoleTarget_NilImage(t *testing.T) {
	target := NewConsoleTarget(&bytes.Buffer{}, 0, false, nil)
	err := target.Render(context.Background(), nil)
	assert.True(t, types.IsCode(err, types.ErrRenderFailed))
}

// --- ExecTarget ---

func TestExecTarget_Render(t *testing.T) {
	dir := t.TempDir()
	record := filepath.Join(dir, "args.txt")

	target, err := NewExecTarget(ExecConfig{
		Command: []string{"sh", "-c", `test -s "$1" && echo "$2 $3 $4" > "$5"`, "sh",
			"{input}", "{width}", "{height}", "{border}", record},
		Width:  640,
		Height: 400,
		Border: "black",
	}, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, target.Render(context.Background(), gradient(640, 400)))

	data, err := os.ReadFile(record)
	require.NoError(t, err)
	assert.Equal(t, "640 400 black", strings.TrimSpace(string(data)))
}

func TestExecTarget_CommandFails(t *testing.T) {
	target, err := NewExecTarget(ExecConfig{
		Command: []string{"sh", "-c", "echo spi busy >&2; exit 1"},
	}, nil)
	require.NoError(t, err)

	err = target.Render(context.Background(), gradient(4, 4))
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrRenderFailed))
	assert.Contains(t, err.Error(), "spi busy")
}

func TestNewExecTarget_RequiresCommand(t *testing.T) {
	_, err := NewExecTarget(ExecConfig{}, nil)
	assert.True(t, types.IsCode(err, types.ErrConfigInvalid))
}

// --- FileTarget ---

func TestFileTarget_Render(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames", "current.png")
	target := NewFileTarget(path, zaptest.NewLogger(t))

	require.NoError(t, target.Render(context.Background(), gradient(64, 40)))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 64, cfg.Width)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "不应残留临时文件")
}

func TestFileTarget_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	target := NewFileTarget(filepath.Join(t.TempDir(), "f.png"), nil)
	err := target.Render(ctx, gradient(2, 2))
	assert.True(t, types.IsCode(err, types.ErrRenderFailed))
}

// --- New ---

func TestNew(t *testing.T) {
	disp := config.DefaultDisplayConfig()

	cfg := config.DefaultRenderConfig()
	target, err := New(cfg, disp, nil)
	require.NoError(t, err)
	assert.Equal(t, "console", target.Name())

	cfg.Driver = "exec"
	target, err = New(cfg, disp, nil)
	require.NoError(t, err)
	assert.Equal(t, "exec", target.Name())

	cfg.Driver = "file"
	target, err = New(cfg, disp, nil)
	require.NoError(t, err)
	assert.Equal(t, "file", target.Name())

	cfg.Path = ""
	_, err = New(cfg, disp, nil)
	assert.True(t, types.IsCode(err, types.ErrConfigInvalid))

	cfg.Driver = "hdmi"
	_, err = New(cfg, disp, nil)
	assert.True(t, types.IsCode(err, types.ErrConfigInvalid))
}

package display

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/donkeykey/AIPhotoFrame/config"
	"github.com/donkeykey/AIPhotoFrame/types"
)

// New 根据配置构造渲染目标.
func New(cfg config.RenderConfig, disp config.DisplayConfig, logger *zap.Logger) (Target, error) {
	switch cfg.Driver {
	case "console":
		return NewConsoleTarget(os.Stdout, DefaultConsoleColumns, cfg.Colored, logger), nil
	case "exec":
		t, err := NewExecTarget(ExecConfig{
			Command: cfg.Command,
			Width:   disp.Width(),
			Height:  disp.Height(),
			Border:  disp.BorderColor,
			Timeout: cfg.Timeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		return t, nil
	case "file":
		if cfg.Path == "" {
			return nil, types.NewError(types.ErrConfigInvalid, "file render target requires a path")
		}
		return NewFileTarget(cfg.Path, logger), nil
	default:
		return nil, types.NewError(types.ErrConfigInvalid, fmt.Sprintf("unknown render driver %q", cfg.Driver))
	}
}

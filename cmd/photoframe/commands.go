package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/sanity-io/litter"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/donkeykey/AIPhotoFrame/config"
	"github.com/donkeykey/AIPhotoFrame/internal/server"
	"github.com/donkeykey/AIPhotoFrame/runner"
	"github.com/donkeykey/AIPhotoFrame/types"
)

// =============================================================================
// 🎨 generate / generate-only
// =============================================================================

func (a *app) runGenerate(args []string, displayImmediately bool, stdout, stderr io.Writer) int {
	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" {
		fmt.Fprintln(stderr, "Error: a prompt is required")
		return 1
	}

	path, err := a.ctrl.Generate(context.Background(), prompt, displayImmediately)
	if err != nil {
		fmt.Fprintf(stderr, "Image generation failed: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "Image saved: %s\n", path)
	if !displayImmediately {
		fmt.Fprintf(stdout, "Display with: photoframe display %s\n", path)
	}
	return 0
}

// =============================================================================
// 🖼️ display
// =============================================================================

func (a *app) runDisplay(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "Error: an image path is required")
		return 1
	}

	path := args[0]
	if err := a.ctrl.Display(context.Background(), path); err != nil {
		if types.IsCode(err, types.ErrNotFound) {
			fmt.Fprintf(stderr, "File not found: %s\n", path)
		} else {
			fmt.Fprintf(stderr, "Display failed: %v\n", err)
		}
		return 1
	}

	fmt.Fprintf(stdout, "Displayed: %s\n", path)
	return 0
}

// =============================================================================
// 📂 list
// =============================================================================

func (a *app) runList(stdout, stderr io.Writer) int {
	list, err := a.store.List(context.Background())
	if err != nil {
		fmt.Fprintf(stderr, "Failed to list images: %v\n", err)
		return 1
	}
	if len(list) == 0 {
		fmt.Fprintln(stdout, "No stored images")
		return 0
	}

	fmt.Fprintf(stdout, "Stored images (%d):\n", len(list))
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	for _, art := range list {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", art.Name, art.HumanSize(), art.Timestamp(), art.Path)
	}
	tw.Flush()
	return 0
}

// =============================================================================
// 🔁 continuous
// =============================================================================

// runContinuous 运行连续模式直到收到停止信号或 parent 结束.
// 状态服务失败只记录日志，不影响运行器
func (a *app) runContinuous(parent context.Context, stdout, stderr io.Writer) int {
	if !a.cfg.ContinuousMode.Enabled {
		fmt.Fprintln(stderr, "Continuous mode is disabled in configuration")
		return 1
	}

	r := runner.New(a.ctrl, a.store, runner.ConfigFrom(a.cfg),
		runner.WithSignals(os.Interrupt, syscall.SIGTERM),
		runner.WithMetrics(a.metrics),
		runner.WithLogger(a.logger),
	)

	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// 运行器退出后关闭状态服务
		defer cancel()
		return r.Run(gctx)
	})

	if a.cfg.Metrics.Enabled {
		srvCfg := server.DefaultConfig()
		srvCfg.Addr = a.cfg.Metrics.Addr
		srvCfg.ShutdownTimeout = a.cfg.Metrics.ShutdownTimeout
		handler := server.NewStatusHandler(a.metrics, func() any { return r.Snapshot() }, a.logger)
		srv := server.NewManager(handler, srvCfg, a.logger)
		g.Go(func() error {
			if err := srv.Run(gctx); err != nil {
				a.logger.Error("状态服务不可用，连续模式继续运行",
					zap.String("addr", srvCfg.Addr), zap.Error(err))
			}
			return nil
		})
	}

	fmt.Fprintln(stdout, "Continuous mode started (Ctrl+C to stop)")
	if err := g.Wait(); err != nil {
		a.logger.Error("连续模式异常退出", zap.Error(err))
		fmt.Fprintf(stderr, "Continuous mode failed: %v\n", err)
		return 1
	}

	snap := r.Snapshot()
	fmt.Fprintf(stdout, "Continuous mode stopped after %d cycles\n", snap.Cycles)
	return 0
}

// =============================================================================
// ⚙️ config
// =============================================================================

// runConfig 打印生效配置，API Key 以掩码替代
func runConfig(cfg *config.Config, stdout io.Writer) int {
	redacted := *cfg
	if redacted.Synthesizer.APIKey != "" {
		redacted.Synthesizer.APIKey = "******"
	}

	opts := litter.Options{
		StripPackageNames: true,
		HidePrivateFields: true,
	}
	fmt.Fprintln(stdout, opts.Sdump(redacted))
	return 0
}

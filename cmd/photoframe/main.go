// =============================================================================
// AI Photo Frame 主入口
// =============================================================================
// 使用方法:
//
//	photoframe generate "sunset over mountains"     # 生成并显示
//	photoframe generate-only "abstract art"         # 只生成
//	photoframe display generated_images/x.png       # 显示已有图像
//	photoframe list                                 # 列出图像
//	photoframe continuous                           # 连续模式
//	photoframe --config /etc/photoframe.yaml list   # 指定配置文件
// =============================================================================

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/donkeykey/AIPhotoFrame/config"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const defaultConfigPath = "config.json"

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run 解析参数并执行子命令，返回进程退出码
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("photoframe", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", defaultConfigPath, "Path to config file (JSON or YAML)")
	fs.Usage = func() { printUsage(stderr) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	rest := fs.Args()
	if len(rest) == 0 {
		printUsage(stdout)
		return 1
	}
	cmd, cmdArgs := strings.ToLower(rest[0]), rest[1:]

	switch cmd {
	case "version":
		printVersion(stdout)
		return 0
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	case "generate", "generate-only", "display", "list", "continuous", "config":
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", cmd)
		printUsage(stderr)
		return 1
	}

	// .env 不存在时忽略
	_ = godotenv.Load()

	cfg, cfgErr := config.NewLoader().WithConfigPath(*configPath).LoadOrDefault()

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	if cfgErr != nil {
		logger.Warn("配置不可用，使用默认配置", zap.String("path", *configPath), zap.Error(cfgErr))
	}

	if cmd == "config" {
		return runConfig(cfg, stdout)
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to initialize: %v\n", err)
		return 1
	}
	defer a.close()

	switch cmd {
	case "generate":
		return a.runGenerate(cmdArgs, true, stdout, stderr)
	case "generate-only":
		return a.runGenerate(cmdArgs, false, stdout, stderr)
	case "display":
		return a.runDisplay(cmdArgs, stdout, stderr)
	case "list":
		return a.runList(stdout, stderr)
	default:
		return a.runContinuous(context.Background(), stdout, stderr)
	}
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "AI Photo Frame %s\n", Version)
	fmt.Fprintf(w, "  Build Time: %s\n", BuildTime)
	fmt.Fprintf(w, "  Git Commit: %s\n", GitCommit)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `AI Photo Frame - AI generated art for e-paper displays

Usage:
  photoframe [--config <path>] <command> [arguments]

Commands:
  generate <prompt...>       Generate an image and display it
  generate-only <prompt...>  Generate an image without displaying it
  display <path>             Display an existing image
  list                       List stored images, newest first
  continuous                 Generate and display forever (Ctrl+C to stop)
  config                     Print the effective configuration
  version                    Show version information
  help                       Show this help message

Options:
  --config <path>   Path to configuration file (default: config.json)

Examples:
  photoframe generate "beautiful sunset over mountains"
  photoframe generate-only "abstract colorful art"
  photoframe display generated_images/ai_photo_20240301_120000.png
  photoframe list
  photoframe continuous`)
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	// 解析日志级别
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	// 配置编码器
	var encoderConfig zapcore.EncoderConfig
	encoding := "json"
	if cfg.Format == "console" {
		encoding = "console"
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}

	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       cfg.Format == "console",
		Encoding:          encoding,
		EncoderConfig:     encoderConfig,
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     !cfg.EnableCaller,
		DisableStacktrace: !cfg.EnableStacktrace,
	}

	logger, err := zapConfig.Build()
	if err != nil {
		// 回退到基本 logger
		logger, _ = zap.NewProduction()
	}

	return logger
}

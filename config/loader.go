// =============================================================================
// 📦 AI Photo Frame 配置加载器
// =============================================================================
// 统一配置加载，支持 JSON/YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.json").
//	    WithEnvPrefix("PHOTOFRAME").
//	    LoadOrDefault()
//
// 配置优先级: 默认值 → 配置文件 → 环境变量
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/donkeykey/AIPhotoFrame/types"
)

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是 AI Photo Frame 的完整配置结构
type Config struct {
	// Display 显示设备配置
	Display DisplayConfig `yaml:"display" env:"DISPLAY"`

	// ContinuousMode 连续运行模式配置
	ContinuousMode ContinuousModeConfig `yaml:"continuous_mode" env:"CONTINUOUS_MODE"`

	// Image 生成图像存储配置
	Image ImageConfig `yaml:"image" env:"IMAGE"`

	// Synthesizer 图像合成配置
	Synthesizer SynthesizerConfig `yaml:"synthesizer" env:"SYNTHESIZER"`

	// Render 显示驱动配置
	Render RenderConfig `yaml:"render" env:"RENDER"`

	// Runner 连续运行器配置
	Runner RunnerConfig `yaml:"runner" env:"RUNNER"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`

	// Metrics 指标服务配置
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`
}

// DisplayConfig 显示设备配置
type DisplayConfig struct {
	// 分辨率 [宽, 高]，同时用于合成与渲染
	Resolution []int `yaml:"resolution" env:"RESOLUTION"`
	// 边框颜色
	BorderColor string `yaml:"border_color" env:"BORDER_COLOR"`
}

// Width 返回目标宽度
func (d DisplayConfig) Width() int {
	if len(d.Resolution) < 2 {
		return 0
	}
	return d.Resolution[0]
}

// Height 返回目标高度
func (d DisplayConfig) Height() int {
	if len(d.Resolution) < 2 {
		return 0
	}
	return d.Resolution[1]
}

// ContinuousModeConfig 连续运行模式配置
type ContinuousModeConfig struct {
	// 是否允许进入连续运行
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// 随机选取的提示词池
	Prompts []string `yaml:"prompts" env:"PROMPTS"`
}

// ImageConfig 生成图像存储配置
type ImageConfig struct {
	// 输出格式
	Format string `yaml:"format" env:"FORMAT"`
	// 编码质量（保留字段，PNG 无损）
	Quality int `yaml:"quality" env:"QUALITY"`
	// 最多保留的图像数量
	MaxStored int `yaml:"max_stored" env:"MAX_STORED"`
	// 输出目录
	OutputDir string `yaml:"output_dir" env:"OUTPUT_DIR"`
}

// SynthesizerConfig 图像合成配置
type SynthesizerConfig struct {
	// 提供者: exec, openai, flux, gemini
	Provider string `yaml:"provider" env:"PROVIDER"`
	// 模型名称
	Model string `yaml:"model" env:"MODEL"`
	// API Key（远程提供者）
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// 基础 URL（可选）
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// 本地命令模板（exec 提供者）
	Command []string `yaml:"command" env:"COMMAND"`
	// 推理步数
	Steps int `yaml:"steps" env:"STEPS"`
	// 引导系数
	GuidanceScale float64 `yaml:"guidance_scale" env:"GUIDANCE_SCALE"`
	// 单次合成超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// 可重试错误的最大重试次数
	MaxRetries int `yaml:"max_retries" env:"MAX_RETRIES"`
}

// RenderConfig 显示驱动配置
type RenderConfig struct {
	// 驱动类型: console, exec, file
	Driver string `yaml:"driver" env:"DRIVER"`
	// 驱动命令模板（exec 驱动）
	Command []string `yaml:"command" env:"COMMAND"`
	// 当前帧输出路径（file 驱动）
	Path string `yaml:"path" env:"PATH"`
	// 控制台彩色输出（console 驱动）
	Colored bool `yaml:"colored" env:"COLORED"`
	// 单次刷新超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// RunnerConfig 连续运行器配置
type RunnerConfig struct {
	// 生成失败后的等待时间
	FailureBackoff time.Duration `yaml:"failure_backoff" env:"FAILURE_BACKOFF"`
	// 未预期错误后的等待时间
	ErrorBackoff time.Duration `yaml:"error_backoff" env:"ERROR_BACKOFF"`
	// 每 N 个周期输出一次进度
	ProgressEvery int `yaml:"progress_every" env:"PROGRESS_EVERY"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// 是否启用调用者信息
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// 是否启用堆栈跟踪
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// MetricsConfig 指标与状态服务配置
type MetricsConfig struct {
	// 是否启动 HTTP 状态服务
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// 监听地址
	Addr string `yaml:"addr" env:"ADDR"`
	// 优雅关闭超时
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// =============================================================================
// 🔧 配置加载器
// =============================================================================

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader 创建新的配置加载器
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "PHOTOFRAME",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath 设置配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix 设置环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator 添加配置验证器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置
// 优先级: 默认值 → 配置文件 → 环境变量
func (l *Loader) Load() (*Config, error) {
	// 1. 从默认值开始
	cfg := DefaultConfig()

	// 2. 如果指定了配置文件，从文件加载
	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// 3. 从环境变量覆盖
	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// 4. 内置校验 + 自定义验证器
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// LoadOrDefault 加载配置，失败时回退到内置默认值。
// 返回的配置永远可用；error 为 CONFIG_INVALID，仅供调用方记录。
func (l *Loader) LoadOrDefault() (*Config, error) {
	cfg, err := l.Load()
	if err != nil {
		return DefaultConfig(), types.NewError(types.ErrConfigInvalid, "config unusable, using built-in defaults").
			WithPath(l.configPath).
			WithCause(err)
	}
	return cfg, nil
}

// loadFromFile 从 JSON/YAML 文件加载配置（JSON 是 YAML 的子集）
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 文件不存在，使用默认值
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// loadFromEnv 从环境变量加载配置
func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv 递归设置结构体字段
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// setFieldValue 设置字段值
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// 特殊处理 time.Duration
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// 逗号分隔；提示词本身含逗号时请使用配置文件
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		switch field.Type().Elem().Kind() {
		case reflect.String:
			field.Set(reflect.ValueOf(parts))
		case reflect.Int:
			ints := make([]int, len(parts))
			for i, p := range parts {
				n, err := strconv.Atoi(p)
				if err != nil {
					return err
				}
				ints[i] = n
			}
			field.Set(reflect.ValueOf(ints))
		}
	}

	return nil
}

// =============================================================================
// 🔍 校验
// =============================================================================

var (
	knownProviders = map[string]bool{"exec": true, "openai": true, "flux": true, "gemini": true}
	knownDrivers   = map[string]bool{"console": true, "exec": true, "file": true}
)

// Validate 验证配置
func (c *Config) Validate() error {
	var errs []string

	if len(c.Display.Resolution) != 2 || c.Display.Width() <= 0 || c.Display.Height() <= 0 {
		errs = append(errs, "display.resolution must be two positive integers")
	}
	if c.Image.MaxStored < 1 {
		errs = append(errs, "image.max_stored must be at least 1")
	}
	if c.Image.OutputDir == "" {
		errs = append(errs, "image.output_dir is required")
	}
	if c.ContinuousMode.Enabled && len(c.ContinuousMode.Prompts) == 0 {
		errs = append(errs, "continuous_mode.prompts must not be empty when enabled")
	}
	if !knownProviders[c.Synthesizer.Provider] {
		errs = append(errs, fmt.Sprintf("unknown synthesizer.provider %q", c.Synthesizer.Provider))
	}
	if c.Synthesizer.Provider == "exec" && len(c.Synthesizer.Command) == 0 {
		errs = append(errs, "synthesizer.command is required for the exec provider")
	}
	if c.Synthesizer.Steps <= 0 {
		errs = append(errs, "synthesizer.steps must be positive")
	}
	if c.Synthesizer.MaxRetries < 0 {
		errs = append(errs, "synthesizer.max_retries must not be negative")
	}
	if !knownDrivers[c.Render.Driver] {
		errs = append(errs, fmt.Sprintf("unknown render.driver %q", c.Render.Driver))
	}
	if c.Render.Driver == "exec" && len(c.Render.Command) == 0 {
		errs = append(errs, "render.command is required for the exec driver")
	}
	if c.Render.Driver == "file" && c.Render.Path == "" {
		errs = append(errs, "render.path is required for the file driver")
	}
	if c.Runner.FailureBackoff < 0 || c.Runner.ErrorBackoff < 0 {
		errs = append(errs, "runner backoffs must not be negative")
	}
	if c.Runner.ProgressEvery < 1 {
		errs = append(errs, "runner.progress_every must be at least 1")
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		errs = append(errs, "telemetry.sample_rate must be between 0 and 1")
	}

	if len(errs) > 0 {
		return types.NewError(types.ErrConfigInvalid, "config validation errors: "+strings.Join(errs, "; "))
	}

	return nil
}

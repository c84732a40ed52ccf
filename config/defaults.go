// =============================================================================
// 📦 AI Photo Frame 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Display:        DefaultDisplayConfig(),
		ContinuousMode: DefaultContinuousModeConfig(),
		Image:          DefaultImageConfig(),
		Synthesizer:    DefaultSynthesizerConfig(),
		Render:         DefaultRenderConfig(),
		Runner:         DefaultRunnerConfig(),
		Log:            DefaultLogConfig(),
		Telemetry:      DefaultTelemetryConfig(),
		Metrics:        DefaultMetricsConfig(),
	}
}

// DefaultDisplayConfig 返回默认显示配置（Inky Impression 5.7"）
func DefaultDisplayConfig() DisplayConfig {
	return DisplayConfig{
		Resolution:  []int{640, 400},
		BorderColor: "black",
	}
}

// DefaultContinuousModeConfig 返回默认连续运行配置
func DefaultContinuousModeConfig() ContinuousModeConfig {
	return ContinuousModeConfig{
		Enabled: true,
		Prompts: []string{
			"beautiful landscape, digital art",
			"serene nature scene, photorealistic",
			"abstract art, colorful patterns",
		},
	}
}

// DefaultImageConfig 返回默认图像存储配置
func DefaultImageConfig() ImageConfig {
	return ImageConfig{
		Format:    "png",
		Quality:   95,
		MaxStored: 10,
		OutputDir: "generated_images",
	}
}

// DefaultSynthesizerConfig 返回默认图像合成配置
// 默认在本机调用扩散模型脚本，树莓派 CPU 上单张约需 10-15 分钟.
// Model 留空，由各远程提供者选择自己的默认模型；本地脚本自带模型
func DefaultSynthesizerConfig() SynthesizerConfig {
	return SynthesizerConfig{
		Provider: "exec",
		Command: []string{
			"python3", "image_generator.py",
			"--prompt", "{prompt}",
			"--width", "{width}",
			"--height", "{height}",
			"--steps", "{steps}",
			"--output", "{output}",
		},
		Steps:         20,
		GuidanceScale: 7.5,
		Timeout:       30 * time.Minute,
		MaxRetries:    2,
	}
}

// DefaultRenderConfig 返回默认显示驱动配置
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		Driver:  "console",
		Command: []string{"python3", "show_inky.py", "{input}", "--border", "{border}"},
		Path:    "current_frame.png",
		Colored: false,
		Timeout: 2 * time.Minute,
	}
}

// DefaultRunnerConfig 返回默认连续运行器配置
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		FailureBackoff: 10 * time.Second,
		ErrorBackoff:   30 * time.Second,
		ProgressEvery:  10,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "console",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "photoframe",
		SampleRate:   1.0,
	}
}

// DefaultMetricsConfig 返回默认指标服务配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:         false,
		Addr:            ":9091",
		ShutdownTimeout: 5 * time.Second,
	}
}

package synth

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/donkeykey/AIPhotoFrame/config"
	"github.com/donkeykey/AIPhotoFrame/internal/retry"
	"github.com/donkeykey/AIPhotoFrame/types"
)

// New 根据配置构造合成器.
// max_retries > 0 时自动包装指数退避重试；未知提供者返回 CONFIG_INVALID.
func New(cfg config.SynthesizerConfig, logger *zap.Logger) (Synthesizer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		s   Synthesizer
		err error
	)
	switch cfg.Provider {
	case "exec":
		s, err = NewExecSynthesizer(ExecConfig{
			Command: cfg.Command,
			Timeout: cfg.Timeout,
		}, logger)
		if err != nil {
			return nil, err
		}
	case "openai":
		s = NewOpenAISynthesizer(OpenAIConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}, logger)
	case "flux":
		s = NewFluxSynthesizer(FluxConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}, logger)
	case "gemini":
		s = NewGeminiSynthesizer(GeminiConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}, logger)
	default:
		return nil, types.NewError(types.ErrConfigInvalid,
			fmt.Sprintf("unknown synthesizer provider %q", cfg.Provider))
	}

	if cfg.MaxRetries > 0 {
		policy := retry.DefaultRetryPolicy()
		policy.MaxRetries = cfg.MaxRetries
		policy.OnRetry = func(attempt int, err error, delay time.Duration) {
			logger.Warn("图像合成重试",
				zap.String("provider", s.Name()),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(err))
		}
		s = WithRetry(s, retry.NewBackoffRetryer(policy, logger))
	}

	return s, nil
}

package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/donkeykey/AIPhotoFrame/internal/tlsutil"
	"github.com/donkeykey/AIPhotoFrame/types"
)

// FluxConfig 配置 Black Forest Labs Flux API.
type FluxConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	// PollInterval 为轮询间隔（默认 2s）
	PollInterval time.Duration
	// MaxPolls 为最大轮询次数（默认 120）
	MaxPolls int
}

// FluxSynthesizer 使用 Flux 执行图像合成：先提交任务，再轮询结果.
// API Docs: https://docs.bfl.ai/quick_start/generating_images
type FluxSynthesizer struct {
	cfg    FluxConfig
	client *http.Client
	logger *zap.Logger
}

// NewFluxSynthesizer 创建 Flux 合成器.
func NewFluxSynthesizer(cfg FluxConfig, logger *zap.Logger) *FluxSynthesizer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.bfl.ai"
	}
	if cfg.Model == "" {
		cfg.Model = "flux-pro-1.1"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.MaxPolls <= 0 {
		cfg.MaxPolls = 120
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &FluxSynthesizer{
		cfg:    cfg,
		client: tlsutil.ProviderClient(timeout),
		logger: logger.With(zap.String("component", "synth"), zap.String("provider", "flux")),
	}
}

func (s *FluxSynthesizer) Name() string { return "flux" }

type fluxRequest struct {
	Prompt       string  `json:"prompt"`
	Width        int     `json:"width,omitempty"`
	Height       int     `json:"height,omitempty"`
	Steps        int     `json:"steps,omitempty"`
	Guidance     float64 `json:"guidance,omitempty"`
	Seed         int64   `json:"seed,omitempty"`
	OutputFormat string  `json:"output_format,omitempty"`
}

type fluxResponse struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	PollingURL string `json:"polling_url,omitempty"`
	Result     struct {
		Sample string `json:"sample"`
	} `json:"result,omitempty"`
}

// Synthesize 提交生成任务，轮询到 Ready 后下载结果.
// Endpoint: POST /v1/{model}，Auth: x-key header
func (s *FluxSynthesizer) Synthesize(ctx context.Context, req *Request) (image.Image, error) {
	body := fluxRequest{
		Prompt:       req.Prompt,
		Width:        roundTo32(req.Width),
		Height:       roundTo32(req.Height),
		Steps:        req.Steps,
		Guidance:     req.GuidanceScale,
		Seed:         req.Seed,
		OutputFormat: "png",
	}

	payload, _ := json.Marshal(body)
	endpoint := fmt.Sprintf("%s/v1/%s", strings.TrimRight(s.cfg.BaseURL, "/"), s.cfg.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, types.NewSynthesisError(s.Name(), fmt.Errorf("failed to create request: %w", err))
	}
	httpReq.Header.Set("x-key", s.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("accept", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, transportError(s.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, statusError(s.Name(), resp)
	}

	var fResp fluxResponse
	if err := json.NewDecoder(resp.Body).Decode(&fResp); err != nil {
		return nil, types.NewSynthesisError(s.Name(), fmt.Errorf("failed to decode response: %w", err))
	}

	if fResp.Status != "Ready" {
		pollingURL := fResp.PollingURL
		if pollingURL == "" {
			pollingURL = fmt.Sprintf("%s/v1/get_result?id=%s", strings.TrimRight(s.cfg.BaseURL, "/"), fResp.ID)
		}
		s.logger.Debug("任务已提交，开始轮询", zap.String("id", fResp.ID))
		result, err := s.pollResult(ctx, pollingURL)
		if err != nil {
			return nil, err
		}
		fResp = *result
	}

	if fResp.Result.Sample == "" {
		return nil, types.NewSynthesisError(s.Name(), fmt.Errorf("result has no sample url"))
	}
	return fetchImage(ctx, s.client, s.Name(), fResp.Result.Sample)
}

// pollResult 轮询异步任务结果.
// result.sample 中的签名 URL 仅 10 分钟有效.
func (s *FluxSynthesizer) pollResult(ctx context.Context, pollingURL string) (*fluxResponse, error) {
	for i := 0; i < s.cfg.MaxPolls; i++ {
		select {
		case <-ctx.Done():
			return nil, types.NewSynthesisError(s.Name(), ctx.Err())
		case <-time.After(s.cfg.PollInterval):
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pollingURL, nil)
		if err != nil {
			return nil, types.NewSynthesisError(s.Name(), fmt.Errorf("failed to create poll request: %w", err))
		}
		httpReq.Header.Set("x-key", s.cfg.APIKey)
		httpReq.Header.Set("accept", "application/json")

		resp, err := s.client.Do(httpReq)
		if err != nil {
			s.logger.Debug("轮询请求失败，继续", zap.Error(err))
			continue
		}

		var fResp fluxResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&fResp)
		resp.Body.Close()
		if decodeErr != nil {
			continue
		}

		switch fResp.Status {
		case "Ready":
			return &fResp, nil
		case "Error", "Failed", "Content Moderated", "Request Moderated":
			return nil, types.NewSynthesisError(s.Name(), fmt.Errorf("generation %s", strings.ToLower(fResp.Status)))
		}
	}

	return nil, types.NewSynthesisError(s.Name(), fmt.Errorf("generation not ready after %d polls", s.cfg.MaxPolls)).
		WithRetryable(true)
}

// roundTo32 把尺寸对齐到 32 的倍数（Flux 要求）
func roundTo32(n int) int {
	if n <= 0 {
		return 0
	}
	r := (n + 16) / 32 * 32
	if r < 256 {
		r = 256
	}
	return r
}

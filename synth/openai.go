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

// OpenAIConfig 配置 OpenAI Images API.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAISynthesizer 使用 OpenAI Images API 执行图像合成.
type OpenAISynthesizer struct {
	cfg    OpenAIConfig
	client *http.Client
	logger *zap.Logger
}

// NewOpenAISynthesizer 创建 OpenAI 合成器.
func NewOpenAISynthesizer(cfg OpenAIConfig, logger *zap.Logger) *OpenAISynthesizer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Model == "" {
		cfg.Model = "dall-e-3"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OpenAISynthesizer{
		cfg:    cfg,
		client: tlsutil.ProviderClient(timeout),
		logger: logger.With(zap.String("component", "synth"), zap.String("provider", "openai")),
	}
}

func (s *OpenAISynthesizer) Name() string { return "openai" }

type dalleRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format,omitempty"`
}

type dalleResponse struct {
	Created int64 `json:"created"`
	Data    []struct {
		URL           string `json:"url,omitempty"`
		B64JSON       string `json:"b64_json,omitempty"`
		RevisedPrompt string `json:"revised_prompt,omitempty"`
	} `json:"data"`
}

// Synthesize 调用 /v1/images/generations 并解码第一张图像.
func (s *OpenAISynthesizer) Synthesize(ctx context.Context, req *Request) (image.Image, error) {
	body := dalleRequest{
		Model:  s.cfg.Model,
		Prompt: req.Prompt,
		N:      1,
		Size:   openAISize(s.cfg.Model, req.Width, req.Height),
	}
	// gpt-image 系列总是返回 b64_json 且不接受该参数
	if strings.HasPrefix(s.cfg.Model, "dall-e") {
		body.ResponseFormat = "b64_json"
	}

	payload, _ := json.Marshal(body)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(s.cfg.BaseURL, "/")+"/v1/images/generations",
		bytes.NewReader(payload))
	if err != nil {
		return nil, types.NewSynthesisError(s.Name(), fmt.Errorf("failed to create request: %w", err))
	}
	httpReq.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, transportError(s.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, statusError(s.Name(), resp)
	}

	var dResp dalleResponse
	if err := json.NewDecoder(resp.Body).Decode(&dResp); err != nil {
		return nil, types.NewSynthesisError(s.Name(), fmt.Errorf("failed to decode response: %w", err))
	}
	if len(dResp.Data) == 0 {
		return nil, types.NewSynthesisError(s.Name(), fmt.Errorf("response contains no images"))
	}

	d := dResp.Data[0]
	if d.RevisedPrompt != "" {
		s.logger.Debug("提示词被改写", zap.String("revised_prompt", d.RevisedPrompt))
	}
	if d.B64JSON != "" {
		img, err := decodeBase64Image(d.B64JSON)
		if err != nil {
			return nil, types.NewSynthesisError(s.Name(), err)
		}
		return img, nil
	}
	if d.URL != "" {
		return fetchImage(ctx, s.client, s.Name(), d.URL)
	}
	return nil, types.NewSynthesisError(s.Name(), fmt.Errorf("image has neither url nor b64_json"))
}

// openAISize 按模型选择与目标宽高比最接近的受支持尺寸，之后由显示端缩放到精确分辨率.
// dall-e-2 只支持正方形；gpt-image 系列为 1536x1024 / 1024x1536；dall-e-3 为 1792x1024 / 1024x1792.
func openAISize(model string, width, height int) string {
	wide, tall := "1792x1024", "1024x1792"
	switch {
	case strings.HasPrefix(model, "dall-e-2"):
		return "1024x1024"
	case strings.HasPrefix(model, "gpt-image"):
		wide, tall = "1536x1024", "1024x1536"
	}

	switch {
	case width > height:
		return wide
	case height > width:
		return tall
	default:
		return "1024x1024"
	}
}

package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/donkeykey/AIPhotoFrame/internal/tlsutil"
	"github.com/donkeykey/AIPhotoFrame/types"
)

// GeminiConfig 配置 Gemini 图像输出.
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// GeminiSynthesizer 使用 Gemini 原生多模态输出执行图像合成.
type GeminiSynthesizer struct {
	cfg    GeminiConfig
	client *http.Client
	logger *zap.Logger
}

// NewGeminiSynthesizer 创建 Gemini 合成器.
func NewGeminiSynthesizer(cfg GeminiConfig, logger *zap.Logger) *GeminiSynthesizer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash-image"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &GeminiSynthesizer{
		cfg:    cfg,
		client: tlsutil.ProviderClient(timeout),
		logger: logger.With(zap.String("component", "synth"), zap.String("provider", "gemini")),
	}
}

func (s *GeminiSynthesizer) Name() string { return "gemini" }

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiImageRequest struct {
	Contents         []geminiContent       `json:"contents"`
	GenerationConfig *geminiImageGenConfig `json:"generationConfig,omitempty"`
}

type geminiImageGenConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type geminiImageResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text       string `json:"text,omitempty"`
				InlineData *struct {
					MimeType string `json:"mimeType"`
					Data     string `json:"data"`
				} `json:"inlineData,omitempty"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Synthesize 调用 generateContent 并解码第一个 inlineData 图像.
func (s *GeminiSynthesizer) Synthesize(ctx context.Context, req *Request) (image.Image, error) {
	// Gemini 不接受像素尺寸参数，以提示词描述画幅
	prompt := req.Prompt
	if req.Width > 0 && req.Height > 0 {
		prompt = fmt.Sprintf("%s, %dx%d aspect ratio", req.Prompt, req.Width, req.Height)
	}

	body := geminiImageRequest{
		Contents: []geminiContent{
			{
				Parts: []geminiPart{{Text: prompt}},
				Role:  "user",
			},
		},
		GenerationConfig: &geminiImageGenConfig{
			ResponseModalities: []string{"IMAGE"},
		},
	}

	payload, _ := json.Marshal(body)
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimRight(s.cfg.BaseURL, "/"), s.cfg.Model, url.QueryEscape(s.cfg.APIKey))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, types.NewSynthesisError(s.Name(), fmt.Errorf("failed to create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, transportError(s.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, statusError(s.Name(), resp)
	}

	var gResp geminiImageResponse
	if err := json.NewDecoder(resp.Body).Decode(&gResp); err != nil {
		return nil, types.NewSynthesisError(s.Name(), fmt.Errorf("failed to decode response: %w", err))
	}

	for _, candidate := range gResp.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			img, err := decodeBase64Image(part.InlineData.Data)
			if err != nil {
				return nil, types.NewSynthesisError(s.Name(), err)
			}
			return img, nil
		}
	}

	return nil, types.NewSynthesisError(s.Name(), fmt.Errorf("response contains no image"))
}

package synth

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"

	"github.com/donkeykey/AIPhotoFrame/types"
)

// maxErrorBody 限制错误响应体读取长度
const maxErrorBody = 4096

// decodeBase64Image 解码 base64（可带 data URI 前缀）图像.
func decodeBase64Image(data string) (image.Image, error) {
	if i := strings.Index(data, ";base64,"); i >= 0 && strings.HasPrefix(data, "data:") {
		data = data[i+len(";base64,"):]
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// fetchImage 下载并解码远程图像.
func fetchImage(ctx context.Context, client *http.Client, provider, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, types.NewSynthesisError(provider, fmt.Errorf("failed to create request: %w", err))
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, transportError(provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, statusError(provider, resp)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, types.NewSynthesisError(provider, fmt.Errorf("decode image: %w", err))
	}
	return img, nil
}

// statusError 将 HTTP 错误响应转换为合成错误，429 与 5xx 可重试.
func statusError(provider string, resp *http.Response) *types.Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
	return types.NewSynthesisError(provider,
		fmt.Errorf("status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))).
		WithRetryable(retryable)
}

// transportError 包装传输层错误，调用方取消的请求不重试.
func transportError(provider string, err error) *types.Error {
	retryable := !errors.Is(err, context.Canceled)
	return types.NewSynthesisError(provider, fmt.Errorf("request failed: %w", err)).
		WithRetryable(retryable)
}

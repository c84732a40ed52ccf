package synth

import (
	"context"
	"image"
)

// Request 描述一次图像合成请求.
type Request struct {
	Prompt        string  `json:"prompt"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	Steps         int     `json:"steps,omitempty"`
	GuidanceScale float64 `json:"guidance_scale,omitempty"`
	Seed          int64   `json:"seed,omitempty"`
}

// Synthesizer 定义文本到图像的合成接口.
// 所有错误均为 *types.Error，错误码 SYNTHESIS_FAILED.
type Synthesizer interface {
	// Synthesize 根据提示词生成一张位图.
	Synthesize(ctx context.Context, req *Request) (image.Image, error)

	// Name 返回适配器名称.
	Name() string
}

package synth

import (
	"context"
	"image"

	"github.com/donkeykey/AIPhotoFrame/internal/retry"
)

// retryingSynthesizer 对可重试的合成错误执行指数退避重试.
type retryingSynthesizer struct {
	inner   Synthesizer
	retryer retry.Retryer
}

// WithRetry 包装合成器，Retryable 错误按 retryer 的策略重试，其余错误直接返回.
func WithRetry(s Synthesizer, retryer retry.Retryer) Synthesizer {
	if retryer == nil {
		return s
	}
	return &retryingSynthesizer{inner: s, retryer: retryer}
}

func (r *retryingSynthesizer) Name() string { return r.inner.Name() }

func (r *retryingSynthesizer) Synthesize(ctx context.Context, req *Request) (image.Image, error) {
	return retry.DoWithResult(ctx, r.retryer, func() (image.Image, error) {
		return r.inner.Synthesize(ctx, req)
	})
}

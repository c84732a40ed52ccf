// MockSynthesizer 的图像合成器测试模拟实现。
//
// 支持固定图像、错误序列、自定义函数与 panic 注入场景。
package mocks

import (
	"context"
	"image"
	"sync"

	"github.com/donkeykey/AIPhotoFrame/synth"
	"github.com/donkeykey/AIPhotoFrame/testutil/fixtures"
)

// MockSynthesizer 是 synth.Synthesizer 的模拟实现
type MockSynthesizer struct {
	mu sync.Mutex

	name  string
	img   image.Image
	err   error
	errs  []error
	fn    func(ctx context.Context, req *synth.Request) (image.Image, error)
	panic any

	calls []synth.Request
}

// NewMockSynthesizer 创建新的 MockSynthesizer，默认返回请求尺寸的渐变图
func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{name: "mock"}
}

// WithName 设置名称
func (m *MockSynthesizer) WithName(name string) *MockSynthesizer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.name = name
	return m
}

// WithImage 设置固定返回图像
func (m *MockSynthesizer) WithImage(img image.Image) *MockSynthesizer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.img = img
	return m
}

// WithError 设置每次调用都返回的错误
func (m *MockSynthesizer) WithError(err error) *MockSynthesizer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithErrorSequence 设置按调用顺序返回的错误，nil 表示该次成功；
// 序列耗尽后回退到 WithError 的设置
func (m *MockSynthesizer) WithErrorSequence(errs ...error) *MockSynthesizer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = errs
	return m
}

// WithFunc 设置自定义合成函数
func (m *MockSynthesizer) WithFunc(fn func(ctx context.Context, req *synth.Request) (image.Image, error)) *MockSynthesizer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fn = fn
	return m
}

// WithPanic 使每次调用 panic
func (m *MockSynthesizer) WithPanic(v any) *MockSynthesizer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panic = v
	return m
}

// Name 返回名称
func (m *MockSynthesizer) Name() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.name
}

// Synthesize 实现 synth.Synthesizer
func (m *MockSynthesizer) Synthesize(ctx context.Context, req *synth.Request) (image.Image, error) {
	m.mu.Lock()
	idx := len(m.calls)
	m.calls = append(m.calls, *req)
	fn, p, img, err := m.fn, m.panic, m.img, m.err
	if idx < len(m.errs) {
		err = m.errs[idx]
	}
	m.mu.Unlock()

	if p != nil {
		panic(p)
	}
	if fn != nil {
		return fn(ctx, req)
	}
	if err != nil {
		return nil, err
	}
	if img != nil {
		return img, nil
	}
	return fixtures.Gradient(req.Width, req.Height), nil
}

// Calls 返回调用记录
func (m *MockSynthesizer) Calls() []synth.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]synth.Request, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount 返回调用次数
func (m *MockSynthesizer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Prompts 返回每次调用的提示词
func (m *MockSynthesizer) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	for i, c := range m.calls {
		out[i] = c.Prompt
	}
	return out
}

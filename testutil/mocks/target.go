// MockTarget 的渲染目标测试模拟实现。
package mocks

import (
	"context"
	"image"
	"sync"
)

// MockTarget 是 display.Target 的模拟实现，记录每次渲染的位图
type MockTarget struct {
	mu sync.Mutex

	name    string
	err     error
	renders []image.Image
}

// NewMockTarget 创建新的 MockTarget
func NewMockTarget() *MockTarget {
	return &MockTarget{name: "mock"}
}

// WithError 设置每次渲染返回的错误
func (m *MockTarget) WithError(err error) *MockTarget {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// Name 返回名称
func (m *MockTarget) Name() string { return m.name }

// Render 实现 display.Target
func (m *MockTarget) Render(ctx context.Context, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.renders = append(m.renders, img)
	return m.err
}

// Renders 返回所有渲染过的位图
func (m *MockTarget) Renders() []image.Image {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]image.Image, len(m.renders))
	copy(out, m.renders)
	return out
}

// CallCount 返回渲染次数
func (m *MockTarget) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.renders)
}

// Last 返回最后一次渲染的位图
func (m *MockTarget) Last() image.Image {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.renders) == 0 {
		return nil
	}
	return m.renders[len(m.renders)-1]
}

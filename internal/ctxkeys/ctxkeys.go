// Package ctxkeys 定义在 context 中传递的相框运行标识.
package ctxkeys

import (
	"context"

	"go.uber.org/zap"
)

// contextKey 用于在 context 中存储值的键类型
type contextKey string

const (
	runIDKey contextKey = "run_id"
	cycleKey contextKey = "cycle"
)

// WithRunID 设置连续模式运行 ID
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunID 获取连续模式运行 ID
func RunID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(runIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// WithCycle 设置当前周期序号
func WithCycle(ctx context.Context, cycle int) context.Context {
	return context.WithValue(ctx, cycleKey, cycle)
}

// Cycle 获取当前周期序号
func Cycle(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(cycleKey).(int)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// LogFields 把 context 中的运行标识转换为日志字段
func LogFields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if id, ok := RunID(ctx); ok {
		fields = append(fields, zap.String("run_id", id))
	}
	if c, ok := Cycle(ctx); ok {
		fields = append(fields, zap.Int("cycle", c))
	}
	return fields
}

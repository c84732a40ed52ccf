// Package telemetry 封装 OpenTelemetry SDK 初始化逻辑，
// 为相框提供 TracerProvider 与 MeterProvider，经 OTLP gRPC 导出。
// 默认关闭；关闭时全局 provider 保持 noop，frame 与 runner 的 span 不产生任何开销。
package telemetry

// Copyright (c) AIPhotoFrame Authors.
// Licensed under the MIT License.

/*
包 metrics 提供基于 Prometheus 的相框运行指标采集能力。

# 概述

Collector 持有独立的 prometheus.Registry，通过 promauto.With 注册全部
指标，多个 Collector 之间互不冲突。状态服务通过 Handler 暴露 /metrics。
所有 Record 方法对 nil 接收者安全，未启用指标时调用方无需判空。

# 主要能力

  - 周期指标：cycles_total / cycle_duration_seconds，按 outcome 分组
  - 合成指标：synthesis_total / synthesis_duration_seconds，按 provider 分组
  - 渲染指标：renders_total，按 target/status 分组
  - 保留指标：artifacts_deleted_total 与 artifacts_stored
  - 退避指标：backoff_seconds_total，按 kind（failure/error）分组
  - HTTP 指标：状态服务自身的请求数与耗时，状态码归类为 2xx/3xx/4xx/5xx
*/
package metrics

// Copyright (c) AIPhotoFrame Authors.
// Licensed under the MIT License.

/*
包 server 提供相框状态服务的 HTTP 生命周期管理。

# 概述

Manager 封装 net/http.Server，负责非阻塞启动、优雅关闭与异步错误传播。
Run 把启动与关闭绑定到 context，便于和连续运行器一起放进 errgroup。
NewStatusHandler 组装状态服务的路由。

# 路由

  - /metrics：Prometheus 指标
  - /healthz：存活探针，始终返回 200
  - /status：运行器快照（JSON）

所有请求经过中间件记录请求数与耗时。
*/
package server

// Copyright (c) AIPhotoFrame Authors.
// Licensed under the MIT License.

/*
Package types 提供 AI Photo Frame 各模块共享的基础类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 artifacts、synth、display、
frame、runner 等上层模块提供统一的错误契约，避免循环依赖。

# 核心类型

  - Error / ErrorCode：结构化错误体系，含 Retryable、Provider、Path 标记

# 错误码

  - SYNTHESIS_FAILED   ：图像合成失败（模型加载、资源耗尽、上游错误）
  - STORE_WRITE_FAILED ：产物写入失败
  - RENDER_FAILED      ：显示设备刷新失败
  - NOT_FOUND          ：待显示文件不存在
  - INVALID_IMAGE      ：待显示文件无法解码
  - CONFIG_INVALID     ：配置文件不可读、格式错误或校验失败
  - CLEANUP_FAILED     ：保留策略删除单个文件失败
  - CONTINUOUS_DISABLED：配置中关闭了连续运行模式

# 主要能力

  - 错误工具链：NewError / WithCause / IsCode / GetErrorCode / IsRetryable
  - 兼容 errors.Is / errors.As 解包
*/
package types

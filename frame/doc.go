// Copyright (c) AIPhotoFrame Authors.
// Licensed under the MIT License.

/*
包 frame 实现相框的单次"生成 → 存储 → 显示"周期与单次显示。

# 概述

Controller 持有合成器、产物存储与渲染目标三个协作者，它们在 main 中
构造一次并显式注入，没有任何进程级全局状态。

# 主要能力

  - Generate：分配产物路径 → 调用合成器 → 原子保存 →（可选）缩放到配置分辨率后渲染；
    渲染失败只记录日志与指标，不影响生成结果
  - GenerateOnly：只生成不显示
  - Display：显示已有图像；文件不存在时返回 NOT_FOUND 且不调用渲染目标，
    无法解码时返回 INVALID_IMAGE

渲染目标收到的位图尺寸始终等于配置分辨率。
每个操作都会创建 OpenTelemetry span（frame.generate / frame.display）。
*/
package frame

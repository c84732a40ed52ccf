// Copyright (c) AIPhotoFrame Authors.
// Licensed under the MIT License.

/*
包 synth 提供文本到图像合成的统一接口与多个后端适配器。

# 概述

扩散模型本身对相框而言是一个黑盒：给定提示词、分辨率与推理步数，
返回一张位图或一个错误。本包定义 Synthesizer 接口，并为本地脚本与
若干远程 API 提供实现，所有失败都被归一为 SYNTHESIS_FAILED 错误。

# 核心接口

  - Synthesizer：Synthesize(ctx, *Request) 返回 image.Image
  - Request：提示词、宽高、推理步数、引导系数与随机种子

# 适配器

  - ExecSynthesizer：调用本地命令（如树莓派上的 Stable Diffusion 脚本），
    通过 {prompt} {width} {height} {steps} {guidance} {output} 占位符传参
  - OpenAISynthesizer：OpenAI Images API，返回 base64 或 URL
  - FluxSynthesizer：Black Forest Labs Flux，异步提交后轮询结果
  - GeminiSynthesizer：Gemini 原生多模态图像输出

# 重试

HTTP 429、5xx 与传输层错误被标记为可重试。WithRetry 使用
internal/retry 的指数退避包装任意 Synthesizer，不可重试的错误直接返回。
New 根据配置构造适配器，并在 max_retries > 0 时自动包装重试。
*/
package synth

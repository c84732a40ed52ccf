// Copyright (c) AIPhotoFrame Authors.
// Licensed under the MIT License.

/*
Package testutil 提供相框测试的共享工具和辅助函数。

# 概述

testutil 为各包单元测试提供统一的上下文、断言与产物文件辅助，
避免各包重复实现相似的测试基础设施。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout / CancelledContext，
    自动注册 Cleanup 防止泄漏
  - 异步断言: AssertEventuallyTrue，支持超时轮询等待条件满足
  - 产物辅助: WriteArtifact 按指定修改时间创建 ai_photo_*.png 文件
  - 图像断言: AssertImageSize

# 子包

  - testutil/mocks: MockSynthesizer 与 MockTarget，
    均支持 Builder 模式、错误注入与调用记录
  - testutil/fixtures: 测试图像工厂（纯色图、渐变图、PNG 编码）

# 使用示例

	ctx := testutil.TestContext(t)
	synth := mocks.NewMockSynthesizer().WithErrorSequence(errSynth, nil)
	target := mocks.NewMockTarget()
	ctrl := frame.NewController(synth, store, target)
	path, err := ctrl.Generate(ctx, "sunset", true)
*/
package testutil

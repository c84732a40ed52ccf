// Copyright (c) AIPhotoFrame Authors.
// Licensed under the MIT License.

/*
包 runner 实现连续模式：不断随机选择提示词，生成、显示并清理旧图像。

# 状态机

	Idle → Running → Stopping → Stopped

Stopped 为终态，Run 不能被再次调用。

# 停止语义

Stop 只设置一个协作标志，在每个周期开始时检查：
正在进行的合成不会被打断，正在进行的退避睡眠会先完成。
WithSignals 把 SIGINT/SIGTERM 转换为 Stop 调用。

# 失败处理

  - 成功：立即进入下一周期
  - SYNTHESIS_FAILED / STORE_WRITE_FAILED：固定退避 failure_backoff（默认 10s）
  - 其他错误或周期内 panic：固定退避 error_backoff（默认 30s）

每个周期结束后执行一次保留清理，清理错误只记录日志。
*/
package runner

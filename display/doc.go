// Package display 定义相框的渲染目标抽象。
//
// Target 接收一张位图并把它送到显示设备。控制器保证传入的位图恰好是
// 配置的分辨率（见 Fit）。内置三种目标：控制台 ASCII 预览、调用外部驱动
// 脚本（如 Inky 电子纸）以及写入固定文件供外部守护进程读取。
// 所有失败均以 RENDER_FAILED 错误返回。
package display

// Copyright (c) AIPhotoFrame Authors.
// Licensed under the MIT License.

/*
Package main 提供 AI 相框的命令行入口。

# 概述

cmd/photoframe 在树莓派上生成 AI 图像并显示到电子墨水屏，
支持单次生成、显示已有图像、列出历史图像以及无限循环的连续模式。

# 子命令

  - generate <prompt...>       生成并立即显示
  - generate-only <prompt...>  只生成不显示
  - display <path>             显示已有图像
  - list                       按时间倒序列出已保存的图像
  - continuous                 连续模式，直到 SIGINT/SIGTERM
  - config                     打印生效配置（API Key 已隐藏）
  - version / help

全局参数 --config 指定配置文件（默认 config.json，JSON 或 YAML）。
成功退出码为 0，任何失败为 1。
构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置。
*/
package main

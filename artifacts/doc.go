// Copyright (c) AIPhotoFrame Authors.
// Licensed under the MIT License.

/*
包 artifacts 管理相框生成图像在本地磁盘上的存储与保留策略。

# 概述

每一张成功合成的图像都以 ai_photo_<YYYYMMDD_HHMMSS>.png 的形式保存在
同一个输出目录中。Store 负责为新图像分配文件名、原子写入、列出已有图像，
并在数量超过上限时按修改时间删除最旧的文件。

# 核心类型

  - Store：单目录产物存储，持有输出目录与保留上限 max_stored
  - Artifact：已存储图像的描述，包含路径、文件名、修改时间与大小

# 主要能力

  - 命名：NextPath 以秒级时间戳命名，同秒冲突时追加 _1、_2 后缀
  - 写入：Save 先写临时文件再 rename，不会留下半张图像
  - 保留：Cleanup 只保留最新的 max_stored 张，修改时间相同时按路径字典序
  - 列表：List 按修改时间倒序返回，无副作用

输出目录假定只有本进程写入，不支持外部并发写入者。
*/
package artifacts

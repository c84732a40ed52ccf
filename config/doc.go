// Package config 提供 AI Photo Frame 的配置管理功能。
//
// 配置在进程启动时加载一次，运行期间不可变。
// 支持从 JSON/YAML 文件与环境变量加载配置，
// 文件缺失、损坏或校验失败时回退到内置默认值。
package config

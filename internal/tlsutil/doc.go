// Package tlsutil 为远程图像合成服务的 HTTP 客户端提供加固的 TLS 设置（TLS 1.2+，仅 AEAD 密码套件）。
package tlsutil

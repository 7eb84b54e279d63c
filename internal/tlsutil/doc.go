// Package tlsutil 提供集中式 TLS 配置，
// 为委托 HTTP 客户端以及 Redis、MongoDB 连接提供 TLS 1.2+、仅 AEAD 密码套件的设置。
package tlsutil

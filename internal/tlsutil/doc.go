// Package tlsutil 提供集中式 HTTP 客户端配置，
// 云端请求使用安全加固的 TLS 设置（TLS 1.2+，仅 AEAD 密码套件），
// 局域网内的辅助服务使用快速失败的拨号超时。
package tlsutil

// Package api 定义 aceceed-edge HTTP API 的请求与响应结构。
//
// # API Overview
//
// 设备端 API 覆盖：
//   - 按键通话会话的开始与停止（/v1/ptt/start、/v1/ptt/stop）
//   - 相机拍照与检测器结果（/v1/camera/capture）
//   - 下游服务就绪情况（/v1/runtime/services）
//   - 会话之外的知识检索（/v1/rag/search）
//   - 生命周期事件流（/v1/events，WebSocket）
//   - 健康检查与版本（/health、/healthz、/ready、/version）
//
// # Authentication
//
// 配置了 server.api_keys 时，除健康检查外的端点需要 X-API-Key 头：
//
//	X-API-Key: your-api-key
//
// # Base URL
//
//	http://127.0.0.1:8000
package api

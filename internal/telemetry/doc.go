// Package telemetry 封装 OpenTelemetry SDK 初始化。
//
// 追踪覆盖按键说话流水线（每次会话一个 span，每个阶段一个子 span）与
// HTTP 入口请求。遥测禁用时不创建导出器，全局 provider 保持 noop，
// 设备上不产生额外开销。
package telemetry

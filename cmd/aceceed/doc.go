// Copyright 2025-2026 Aceceed Edge Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
Package main 提供 aceceed-edge 设备端程序入口。

# 概述

cmd/aceceed 组装按键说话会话运行时（录音、识别、检索、智能体、安全过滤、
合成与播放），并通过 HTTP API、WebSocket 事件流与键盘按键驱动会话。

# 核心类型

  - Server     ：主服务器，管理 API 与 Metrics 双端口、会话监听及优雅关闭
  - KeyboardPTT：回车键切换开始/停止，通过事件总线驱动会话
  - Middleware ：HTTP 中间件函数签名 func(http.Handler) http.Handler

# 主要能力

  - 子命令：serve、index（构建 RAG 索引）、status、health、version
  - 中间件链：Recovery、RequestID、SecurityHeaders、RequestLogger、
    Metrics、OTelTracing、CORS、RateLimiter（基于 IP）、APIKeyAuth（X-API-Key）
  - Metrics 服务器：独立端口暴露 /metrics（Prometheus）
  - 优雅关闭：信号监听 → 关闭 HTTP → 关闭 Metrics → 停止会话 → 刷新遥测
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main

/*
Package handlers 提供 aceceed-edge HTTP API 的请求处理器实现。

# 概述

handlers 包实现设备端全部 HTTP 端点：按键通话会话、相机拍照、
服务就绪情况、知识检索、生命周期事件流以及健康检查。
所有 Handler 均遵循标准 net/http 接口。

# 核心类型

  - PTTHandler    ：/v1/ptt/start、/v1/ptt/stop、/v1/camera/capture、/v1/runtime/services
  - RAGHandler    ：/v1/rag/search，会话之外的只读检索
  - EventsHandler ：/v1/events，WebSocket 推送生命周期事件
  - HealthHandler ：/health、/healthz、/ready、/version
  - Controller    ：处理器依赖的会话控制器能力
  - ResponseWriter：包装 http.ResponseWriter 以捕获状态码

# 响应格式

会话类端点统一返回 {status, transcript?, response?, message?}；
错误时 status 为 "error"，结构化错误按错误码映射 HTTP 状态码。
*/
package handlers

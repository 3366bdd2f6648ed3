// Copyright 2025-2026 Aceceed Edge Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
包 llm 定义会话智能体调用语言模型的最小接口与客户端中间件。

# 概述

智能体只需要"给一组消息，返回一段文本"，因此 Client 只有一个 Generate
方法。具体后端（llama.cpp server、OpenAI、LLM-8850 加速卡）位于
llm/providers 子包，由 llm/factory 按配置创建并套上中间件。

# 核心类型

  - Message / Role：system、user、assistant 三种角色的对话消息
  - Client：Generate(ctx, messages) (string, error)
  - ClientFunc：函数适配器，便于测试与中间件实现
  - Middleware：func(next Client) Client

# 中间件

  - LoggingMiddleware：debug 级别记录消息数、耗时与结果
  - MetricsMiddleware：按后端记录请求数与延迟
  - BreakerMiddleware：后端连续失败后熔断（llm/circuitbreaker）
  - TimeoutMiddleware：为单次请求附加超时

Chain 按"第一个在最外层"的顺序组合中间件。

# 子包

  - llm/factory：按 llm 配置创建客户端，提供 BackendName
  - llm/providers/openaicompat：OpenAI 兼容 chat completions 客户端
  - llm/providers/llm8850：LLM-8850 加速卡轮询式客户端
  - llm/retry：指数退避重试，只重试 Retryable 错误
  - llm/circuitbreaker：连续失败熔断器
  - llm/speech：语音识别与合成提供者
*/
package llm

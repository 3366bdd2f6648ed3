// Copyright 2025-2026 Aceceed Edge Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

包 providers 是各 LLM 后端客户端（openaicompat、llm8850）以及云端语音
客户端共用的 HTTP 辅助层，负责错误语义映射与 URL 拼接。

# 核心函数

  - MapHTTPError：将 HTTP 状态码映射为 *types.Error，5xx/408/429 标记为可重试
  - NetworkError：连接失败统一映射为可重试的 UPSTREAM_ERROR
  - ReadErrorMessage：从 OpenAI 风格错误体或纯文本中提取错误信息
  - JoinURL：拼接 base URL 与路径，处理多余的斜杠
*/
package providers

// Copyright 2025-2026 Aceceed Edge Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

Package session 实现单会话语音流水线控制器与生命周期事件总线。

同一时刻至多一个会话。Start 在已有会话时立即失败（ALREADY_ACTIVE），
Stop 只中断录音阶段；识别之后的阶段不再响应取消，已录到的部分音频照常处理。

# 阶段

	idle → recording → transcribing → [vision] → [retrieving] → [ocr]
	     → dispatching → safety_filtering → synthesizing → playing → idle

识别结果为空时跳过视觉、检索与分派，直接播报固定提示语。
视觉、检索与 OCR 失败只记录告警；选不出智能体或智能体不作答会终止会话。

# 事件

每次会话按流水线顺序发布 transcript-ready、[capture-completed]、
agent-responded、speech-played；失败时发布 error。
session-started / session-stopped 是触发源发出的请求，[Controller.Listen]
对非 API 来源的请求做出响应。
*/
package session

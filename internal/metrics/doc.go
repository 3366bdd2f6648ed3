// 版权所有 2024 Aceceed Edge Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的运行时指标采集能力，覆盖
HTTP、会话流水线、视觉检测器、LLM 与检索几个维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
自动注册机制。所有指标按 namespace 隔离，nil Collector 上的调用
为空操作，组件可以在未启用指标时直接传 nil。

# 核心类型

  - Collector：指标收集器，持有 Counter、Histogram、Gauge 等向量指标。

# 主要能力

  - 会话：RecordSession / SetSessionActive / RecordStage / RecordStageTransition
  - 视觉：RecordDetector 按 ok / timeout / error 统计检测器结果
  - LLM：RecordLLMRequest 按后端标签统计请求与耗时
  - 检索与事件：RecordRetrieval / RecordEvent
*/
package metrics

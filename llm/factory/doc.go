// Package factory 根据 llm 配置段选择并组装 LLM 客户端（云端 OpenAI、本地 llama.cpp、LLM-8850），
// 所有客户端统一经过日志与指标中间件。
package factory

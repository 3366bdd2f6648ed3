// Copyright 2025-2026 Aceceed Edge Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

Package rag 提供课程知识库的本地索引与检索。

索引为 JSON 数组或 JSON Lines 文件，启动时整体载入内存，之后只读，
可被会话流水线和 /v1/rag/search 并发查询。

# 核心接口/类型

  - Chunk：知识片段（年级段、学科、主题、正文、来源、来源类型、标签）
  - Scorer：相关度打分接口，默认 LexicalScorer
  - Retriever：过滤、打分、稳定排序、截断与来源脱敏
  - Chunker：索引构建时按空行切分段落

# 检索流程

 1. 过滤：年级段必须相等；学科与来源类型列表非空时须命中
 2. 打分：Scorer 计算 query 与片段文本的相关度
 3. 排序：按分数降序稳定排序，同分保持语料原序，截断到 limit
 4. 脱敏：IncludeSources 为 false 时清空 Source，保留 SourceType
*/
package rag

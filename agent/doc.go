/*
Package agent 提供语音会话中的回答智能体及其选择策略。

# 核心类型

  - [Agent]：智能体接口，Handle 返回 nil 表示不作答
  - [Tutor]：结合年级段、学科、检索片段与 OCR 文本的课程辅导智能体
  - [Coach]：学习习惯与计划教练，不引用课程资料
  - [Registry]：按注册顺序保存智能体，仅暴露已启用的
  - [Selector]：显式请求 > 默认配置 > 教练关键词 > tutor > 首个启用

# 语言一致性

Tutor 与 Coach 共享同一套语言处理：按文字脚本识别提问语言，
在系统提示中追加语言指令，校验回答脚本，不一致时最多发起一次翻译请求，
最后去掉 "Answer:"、"回答：" 之类的前缀标签。
*/
package agent

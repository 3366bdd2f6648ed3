// 版权所有 2024 Aceceed Edge Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 guardrails 对智能体的输出做播报前的安全过滤。

# 概述

SafetyFilter 由两个验证器组成：

  - [KeywordValidator]：大小写不敏感的禁用词子串检测，命中即整段替换为安全引导语
  - [LengthValidator]：严格模式下截断为前 N 句并限制字符数

禁用词检测总是优先于长度策略。未命中时先把连续空白折叠为单个空格再裁剪首尾。

# 使用方式

	filter := guardrails.NewSafetyFilter(cfg.Runtime.Safety)
	spoken := filter.Guard(agentText)
*/
package guardrails

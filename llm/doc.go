// 版权所有 2024 DesignFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 llm 提供统一的大语言模型接入层。

# 概述

designflow 只把大模型当作"文本进、文本出、可能失败"的规范化能力使用：
normalize 包通过 [Provider] 发起一次短的同步补全，把自由文本改写为标准指令。
本包屏蔽不同服务商在接口、鉴权与错误语义上的差异。

# 核心类型

  - [Provider]：Completion / HealthCheck / Name
  - [ChatRequest] / [ChatResponse] / [Message]：请求与响应模型
  - [Error] / [ErrorCode]：统一错误语义（是否可重试、HTTP 状态）

具体实现见 llm/providers/openaicompat。
*/
package llm

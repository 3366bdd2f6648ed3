// 版权所有 2024 Aceceed Edge Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 server 提供 HTTP 服务器生命周期管理，支持非阻塞启动、
优雅关闭与系统信号监听。

# 概述

本包通过 Manager 封装 net/http.Server，统一管理监听、服务、
关闭与错误传播流程。边缘运行时同时持有 API 与 metrics 两个
Manager，WaitForSignal 在任一异常退出或收到 SIGINT/SIGTERM 时返回。

# 核心类型

  - Manager：HTTP 服务器管理器，持有 http.Server、net.Listener
    与异步错误通道。
  - Config：监听地址、读写超时、空闲超时与优雅关闭超时。

# 主要能力

  - 非阻塞启动：Start 在后台 goroutine 中运行服务。
  - 优雅关闭：Shutdown 在配置的超时内完成请求排空。
  - 地址查询：Addr 在监听后返回实际端口，便于 ":0" 测试。
*/
package server

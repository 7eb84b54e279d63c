// Package api 汇集 DesignFlow 的 HTTP 接口。
//
// # 端点
//
//	GET  /                     存活文本 "Design in Action API is running!"
//	POST /update-context       {"userId": "...", "input": "..."} → 更新后的扁平快照
//	GET  /context/{userId}     当前快照（不存在时为 {}）
//	GET  /ws/context?userId=   websocket，先推送当前快照，再推送每次更新
//	GET  /health, /ready       探针
//	GET  /version              构建信息
//
// # 认证
//
// 配置了 server.api_keys 时，除 / 与探针外的端点需要 X-API-Key 请求头。
//
// 处理器实现见子包 handlers。
package api

// Package factory 提供 LLM Provider 的集中式工厂，
// 通过服务商名称选择 OpenAI 兼容端点的默认地址、路径与兜底模型。
package factory

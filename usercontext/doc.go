// Package usercontext 实现单次偏好更新的完整流程：
// 读取存储快照、规范化输入、解析增量并合并、写回存储、推送给订阅者。
//
// Broadcaster 按用户维度扇出最新快照，发布方永不阻塞，
// 慢订阅者只会看到最新一份快照。
package usercontext

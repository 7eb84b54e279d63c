// Package preference 实现偏好累积引擎。
//
// 输入为已规范化的文本与用户当前的偏好快照（Snapshot），输出新的快照。
// 快照保持稀疏：引擎只写入文本触发的字段，默认值（形状、尺寸、颜色）
// 由渲染侧通过 ResolveRender 在消费时补全。
//
// 处理顺序：
//
//	Resolve(text)          → Delta（绝对赋值 + 相对增量 + 颜色）
//	Snapshot.Apply(delta)  → 新快照（浅拷贝 + 下限 1）
//	Update(prior, text)    = prior.Apply(Resolve(text))
package preference

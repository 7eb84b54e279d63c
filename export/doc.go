/*
Package export 把偏好快照导出为 glTF 2.0 场景文件。

场景只包含一个以原点为中心的长方体网格：24 个顶点（每个面独立法线）、
36 个 uint16 索引。文档由 github.com/qmuntal/gltf 构建，几何数据经
modeler 写入 buffer；.gltf 输出以 base64 data URI 内嵌 buffer，.glb
输出为二进制容器。材质为 PBR 金属度 0、粗糙度 1，未设置颜色时使用白色 0xffffff。

	params := export.ParamsFromSnapshot(snap)
	doc := export.BuildScene(params)
	if err := export.WriteFile("out.gltf", doc); err != nil {
		...
	}
*/
package export

package export

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/BaSui01/designflow/preference"
)

// DefaultColor 是导出时未设置颜色的默认值
const DefaultColor = 0xffffff

// Generator 写入 asset.generator
const Generator = "designflow"

const (
	boxVertexCount = 24
	boxIndexCount  = 36
)

// boxFace 描述长方体的一个面：法线 n，面内轴 u、v 满足 u×v = n，
// 因此按 (-u,-v)、(+u,-v)、(+u,+v)、(-u,+v) 排列的顶点从外侧看为逆时针。
type boxFace struct {
	n, u, v [3]float32
}

var boxFaces = [6]boxFace{
	{n: [3]float32{1, 0, 0}, u: [3]float32{0, 0, -1}, v: [3]float32{0, 1, 0}},
	{n: [3]float32{-1, 0, 0}, u: [3]float32{0, 0, 1}, v: [3]float32{0, 1, 0}},
	{n: [3]float32{0, 1, 0}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 0, -1}},
	{n: [3]float32{0, -1, 0}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 0, 1}},
	{n: [3]float32{0, 0, 1}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 1, 0}},
	{n: [3]float32{0, 0, -1}, u: [3]float32{-1, 0, 0}, v: [3]float32{0, 1, 0}},
}

var cornerSigns = [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

// ParamsFromSnapshot 补全导出参数；与渲染默认值不同，缺省颜色为白色
func ParamsFromSnapshot(s preference.Snapshot) preference.RenderParams {
	p := preference.ResolveRender(s)
	if _, ok := s.Number(preference.KeyColor); !ok {
		p.Color = DefaultColor
	}
	return p
}

// boxGeometry 生成以原点为中心的长方体顶点、法线与三角形索引
func boxGeometry(p preference.RenderParams) ([][3]float32, [][3]float32, []uint16) {
	half := [3]float32{
		float32(p.Width / 2),
		float32(p.Height / 2),
		float32(p.Depth / 2),
	}

	positions := make([][3]float32, 0, boxVertexCount)
	normals := make([][3]float32, 0, boxVertexCount)
	indices := make([]uint16, 0, boxIndexCount)

	for _, f := range boxFaces {
		base := uint16(len(positions))
		for _, s := range cornerSigns {
			var pos [3]float32
			for k := 0; k < 3; k++ {
				pos[k] = (f.n[k] + s[0]*f.u[k] + s[1]*f.v[k]) * half[k]
			}
			positions = append(positions, pos)
			normals = append(normals, f.n)
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return positions, normals, indices
}

// BuildScene 构建单网格长方体场景，几何数据写入文档的第一个 buffer
func BuildScene(p preference.RenderParams) *gltf.Document {
	positions, normals, indices := boxGeometry(p)

	doc := gltf.NewDocument()
	doc.Asset.Generator = Generator

	// modeler 会为 POSITION 计算 min/max
	posIdx := modeler.WritePosition(doc, positions)
	normIdx := modeler.WriteNormal(doc, normals)
	indicesIdx := modeler.WriteIndices(doc, indices)

	doc.Materials = []*gltf.Material{{
		Name: "box",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: baseColorFactor(p.Color),
			MetallicFactor:  gltf.Float(0),
			RoughnessFactor: gltf.Float(1),
		},
	}}
	doc.Meshes = []*gltf.Mesh{{
		Name: "box",
		Primitives: []*gltf.Primitive{{
			Attributes: map[string]int{gltf.POSITION: posIdx, gltf.NORMAL: normIdx},
			Indices:    gltf.Index(indicesIdx),
			Material:   gltf.Index(0),
			Mode:       gltf.PrimitiveTriangles,
		}},
	}}
	doc.Nodes = []*gltf.Node{{
		Name:   "box",
		Mesh:   gltf.Index(0),
		Extras: map[string]any{preference.KeyShape: string(p.Shape)},
	}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)
	return doc
}

// baseColorFactor 把 sRGB 整数颜色转换为线性空间的 RGBA 因子
func baseColorFactor(color int) *[4]float64 {
	channel := func(shift uint) float64 {
		c := float64((color>>shift)&0xff) / 255
		if c <= 0.04045 {
			return c / 12.92
		}
		return math.Pow((c+0.055)/1.055, 2.4)
	}
	return &[4]float64{channel(16), channel(8), channel(0), 1}
}

// WriteFile 按扩展名写出场景：.glb 为二进制容器，其余为内嵌 base64 buffer 的 JSON
func WriteFile(path string, doc *gltf.Document) error {
	var err error
	if strings.EqualFold(filepath.Ext(path), ".glb") {
		err = gltf.SaveBinary(doc, path)
	} else {
		for _, b := range doc.Buffers {
			if b.URI == "" {
				b.EmbeddedResource()
			}
		}
		err = gltf.Save(doc, path)
	}
	if err != nil {
		return fmt.Errorf("write gltf %s: %w", path, err)
	}
	return nil
}

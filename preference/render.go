package preference

import "strings"

// =============================================================================
// 🎨 渲染输入
// =============================================================================

// Shape 是渲染侧支持的几何体
type Shape string

const (
	ShapeCube     Shape = "cube"
	ShapeSphere   Shape = "sphere"
	ShapeCylinder Shape = "cylinder"
)

// DefaultRenderColor 是未设置颜色时的中性灰
const DefaultRenderColor = 0xA8A8A8

// RenderParams 是补全默认值后的渲染输入，与稀疏的 Snapshot 分开建模
type RenderParams struct {
	Shape  Shape   `json:"shape"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth"`
	Color  int     `json:"color"`
}

// ResolveRender 在消费时补全默认值：形状 cube（未知形状回退 cube）、
// 尺寸 10、颜色中性灰。不修改 s。
func ResolveRender(s Snapshot) RenderParams {
	p := RenderParams{
		Shape:  ShapeCube,
		Width:  renderDimension(s, KeyWidth),
		Height: renderDimension(s, KeyHeight),
		Depth:  renderDimension(s, KeyDepth),
		Color:  DefaultRenderColor,
	}

	if raw, ok := s[KeyShape].(string); ok {
		switch Shape(strings.ToLower(strings.TrimSpace(raw))) {
		case ShapeSphere:
			p.Shape = ShapeSphere
		case ShapeCylinder:
			p.Shape = ShapeCylinder
		}
	}

	if c, ok := s.Number(KeyColor); ok && c >= 0 && c <= 0xffffff {
		p.Color = int(c)
	}

	return p
}

func renderDimension(s Snapshot, key string) float64 {
	if v, ok := s.Number(key); ok && v > 0 {
		return v
	}
	return DefaultDimension
}

package preference

import (
	"encoding/json"
	"math"
)

// =============================================================================
// 📦 偏好快照
// =============================================================================

// 已知字段名
const (
	KeyShape  = "shape"
	KeyWidth  = "width"
	KeyHeight = "height"
	KeyDepth  = "depth"
	KeyColor  = "color"
)

// DefaultDimension 是尺寸字段缺失时参与增量计算的基数
const DefaultDimension = 10.0

// MinDimension 是尺寸字段的下限
const MinDimension = 1.0

// dimensionKeys 按固定顺序列出三个尺寸字段
var dimensionKeys = [...]string{KeyWidth, KeyHeight, KeyDepth}

// Snapshot 是单个用户的扁平偏好映射（key → 标量）。
// 所有数值统一以 float64 保存，与 JSON 数值语义一致。
type Snapshot map[string]any

// Clone 返回浅拷贝；nil 快照返回空快照
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Number 读取数值字段，兼容各存储驱动返回的数值类型
func (s Snapshot) Number(key string) (float64, bool) {
	v, ok := s[key]
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

// dimension 返回尺寸字段，缺失或非数值时返回 DefaultDimension
func (s Snapshot) dimension(key string) float64 {
	if v, ok := s.Number(key); ok && v != 0 {
		return v
	}
	return DefaultDimension
}

// Canonical 把所有数值类型统一转换为 float64，其余值原样保留。
// 存储后端在读取后调用，保证往返结构一致。
func Canonical(s Snapshot) Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		if f, ok := toFloat(v); ok {
			out[k] = f
			continue
		}
		out[k] = v
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func floor(v float64) float64 {
	return math.Max(MinDimension, v)
}

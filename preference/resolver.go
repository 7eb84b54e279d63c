package preference

import (
	"regexp"
	"strconv"
	"strings"
)

// =============================================================================
// 🎯 增量解析
// =============================================================================

// 颜色常量（RGB 整数）
const (
	ColorBlue   = 0x0000ff
	ColorRed    = 0xff0000
	ColorGreen  = 0x00ff00
	ColorYellow = 0xffff00
	ColorWhite  = 0xffffff
	ColorBlack  = 0x000000
	ColorGrey   = 0xA8A8A8
)

// colorKeywords 按固定检查顺序排列，同时出现时最后命中者生效
var colorKeywords = [...]struct {
	word  string
	value int
}{
	{"blue", ColorBlue},
	{"red", ColorRed},
	{"green", ColorGreen},
	{"yellow", ColorYellow},
	{"white", ColorWhite},
	{"black", ColorBlack},
	{"grey", ColorGrey},
}

// explicitSizePattern 匹配 "20x10x5" / "20 x 10 x 5" 形式的显式尺寸
var explicitSizePattern = regexp.MustCompile(`(\d+)\s*x\s*(\d+)\s*x\s*(\d+)`)

// Step 是一次尺寸增量：对 Keys 中的每个字段加上 Amount。
// Amount 为负时结果不低于 MinDimension。
type Step struct {
	Keys   []string
	Amount float64
}

// Delta 是单次输入在合并前产生的字段变更集合
type Delta struct {
	// Assign 为整体赋值（描述词、形状、显式尺寸），先于增量应用
	Assign map[string]any
	// Steps 按解析顺序排列的尺寸增量
	Steps []Step
	// Color 非 nil 时覆盖颜色
	Color *int
}

// Empty 判断 Delta 是否不产生任何变更
func (d Delta) Empty() bool {
	return len(d.Assign) == 0 && len(d.Steps) == 0 && d.Color == nil
}

// intensity 是各强度短语在文本中的出现次数
type intensity struct {
	bigger      int
	smaller     int
	muchBigger  int
	muchSmaller int
}

// intensityCounts 按子串出现次数计数。
// "much bigger" 同时计入 bigger（"much smaller" 同理），即一次 "much bigger" 共 +3。
// 若要去掉重复计数，只需在此处从 bigger/smaller 中减去 much 计数。
func intensityCounts(text string) intensity {
	return intensity{
		bigger:      strings.Count(text, "bigger"),
		smaller:     strings.Count(text, "smaller"),
		muchBigger:  strings.Count(text, "much bigger"),
		muchSmaller: strings.Count(text, "much smaller"),
	}
}

// Resolve 扫描规范化文本并计算 Delta。
// 匹配前统一转为小写；对任意字符串都成立，无匹配时返回空 Delta。
func Resolve(text string) Delta {
	text = strings.ToLower(text)

	d := Delta{Assign: lookupDescriptors(text)}

	if w, h, dp, ok := explicitSize(text); ok {
		if d.Assign == nil {
			d.Assign = make(map[string]any, 3)
		}
		d.Assign[KeyWidth] = w
		d.Assign[KeyHeight] = h
		d.Assign[KeyDepth] = dp
	}

	all := dimensionKeys[:]
	counts := intensityCounts(text)
	if counts.bigger > 0 {
		d.Steps = append(d.Steps, Step{Keys: all, Amount: float64(counts.bigger)})
	}
	if counts.smaller > 0 {
		d.Steps = append(d.Steps, Step{Keys: all, Amount: -float64(counts.smaller)})
	}
	if counts.muchBigger > 0 {
		d.Steps = append(d.Steps, Step{Keys: all, Amount: float64(counts.muchBigger * 2)})
	}
	if counts.muchSmaller > 0 {
		d.Steps = append(d.Steps, Step{Keys: all, Amount: -float64(counts.muchSmaller * 2)})
	}

	if strings.Contains(text, "longer") {
		d.Steps = append(d.Steps, Step{Keys: []string{KeyWidth}, Amount: 1})
	}
	if strings.Contains(text, "shorter") {
		d.Steps = append(d.Steps, Step{Keys: []string{KeyWidth}, Amount: -1})
	}

	for _, c := range colorKeywords {
		if strings.Contains(text, c.word) {
			v := c.value
			d.Color = &v
		}
	}

	return d
}

// explicitSize 解析第一处显式尺寸，每个分量不低于 MinDimension
func explicitSize(text string) (w, h, d float64, ok bool) {
	m := explicitSizePattern.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, 0, false
	}
	parse := func(s string) float64 {
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return MinDimension
		}
		return floor(n)
	}
	return parse(m[1]), parse(m[2]), parse(m[3]), true
}

// =============================================================================
// 🔀 合并
// =============================================================================

// Apply 以 s 的浅拷贝为基础应用 Delta，返回新快照；s 本身不被修改。
// 未识别的字段原样保留。
func (s Snapshot) Apply(d Delta) Snapshot {
	out := s.Clone()

	for k, v := range d.Assign {
		if isDimension(k) {
			if f, ok := toFloat(v); ok {
				out[k] = floor(f)
				continue
			}
		}
		out[k] = v
	}

	for _, step := range d.Steps {
		for _, k := range step.Keys {
			v := out.dimension(k) + step.Amount
			if step.Amount < 0 {
				v = floor(v)
			}
			out[k] = v
		}
	}

	if d.Color != nil {
		out[KeyColor] = float64(*d.Color)
	}

	return out
}

// Update 解析 text 并合并到 prior 上
func Update(prior Snapshot, text string) Snapshot {
	return prior.Apply(Resolve(text))
}

func isDimension(key string) bool {
	for _, k := range dimensionKeys {
		if k == key {
			return true
		}
	}
	return false
}

package preference

import (
	"strings"
	"unicode"
)

// descriptorTable 把整词映射为整体赋值的字段。
// 值只会被整体写入，引擎不再解释；尺寸值在合并时仍受 MinDimension 下限约束，
// 因此 small(0.5)、tiny(0.1) 实际落为 1。
var descriptorTable = map[string]map[string]any{
	"endless":  uniformSize(100000),
	"gigantic": uniformSize(100),
	"enormous": uniformSize(50),
	"large":    uniformSize(15),
	"big":      uniformSize(15), // 同义于 large
	"medium":   uniformSize(3),
	"short":    uniformSize(1),
	"small":    uniformSize(0.5),
	"tiny":     uniformSize(0.1),
	"tall":     {KeyHeight: 15.0},

	"cube":      {KeyShape: string(ShapeCube)},
	"sphere":    {KeyShape: string(ShapeSphere)},
	"cylinder":  {KeyShape: string(ShapeCylinder)},
	"cozy":      {"material": "wood"},
	"modern":    {"style": "modern"},
	"luxurious": {"style": "luxurious"},
	"luxury":    {"style": "luxurious"},
	"spacious":  {"size": "large"},
	"house":     {"building_type": "house"},
	"garden":    {"outdoor_space": "garden"},
	"yard":      {"outdoor_space": "garden"},
}

func uniformSize(v float64) map[string]any {
	return map[string]any{KeyWidth: v, KeyHeight: v, KeyDepth: v}
}

// lookupDescriptors 按词序合并命中的描述词；后出现的词覆盖先出现的。
// 只做整词匹配，"bigger" 之类的词不会误命中。
func lookupDescriptors(text string) map[string]any {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	var out map[string]any
	for _, w := range words {
		fields, ok := descriptorTable[w]
		if !ok {
			continue
		}
		if out == nil {
			out = make(map[string]any, len(fields))
		}
		for k, v := range fields {
			out[k] = v
		}
	}
	return out
}

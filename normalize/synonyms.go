package normalize

// DefaultSynonyms 本地同义词表，键为小写的完整输入
var DefaultSynonyms = map[string]string{
	"greater":  "bigger",
	"tighter":  "smaller",
	"crimson":  "red",
	"navy":     "blue",
	"stretch":  "longer",
	"compress": "shorter",
}

func cloneSynonyms(src map[string]string) map[string]string {
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

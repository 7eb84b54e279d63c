// =============================================================================
// 📦 designflow 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("DESIGNFLOW").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 别名环境变量 → 前缀环境变量
//
// 字段的环境变量名由 env 标签逐级拼接: DESIGNFLOW_LLM_API_KEY。
// alias 标签声明不带前缀的兼容变量名（如 PORT、OPENAI_API_KEY），
// 仅在前缀变量未设置时生效。
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader 创建新的配置加载器
func NewLoader() *Loader {
	return &Loader{envPrefix: DefaultEnvPrefix}
}

// WithConfigPath 设置配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix 设置环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator 添加配置验证器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := loadFile(l.configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	for _, b := range bindings(reflect.ValueOf(cfg).Elem(), l.envPrefix) {
		if err := b.apply(); err != nil {
			return nil, fmt.Errorf("failed to load config from env: %w", err)
		}
	}

	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}
	return cfg, nil
}

// loadFile 从 YAML 文件加载配置，文件不存在时保留默认值
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// =============================================================================
// 🌱 环境变量绑定
// =============================================================================

// envBinding 一个叶子字段与其环境变量名
type envBinding struct {
	key   string
	alias string
	field reflect.Value
}

// bindings 递归收集结构体的叶子字段绑定
func bindings(v reflect.Value, prefix string) []envBinding {
	var out []envBinding
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := sf.Tag.Get("env")
		if tag == "" || tag == "-" {
			continue
		}
		key := prefix + "_" + tag
		if sf.Type.Kind() == reflect.Struct && sf.Type != durationType {
			out = append(out, bindings(v.Field(i), key)...)
			continue
		}
		out = append(out, envBinding{key: key, alias: sf.Tag.Get("alias"), field: v.Field(i)})
	}
	return out
}

// lookup 返回生效的变量名与取值，前缀变量优先
func (b envBinding) lookup() (string, string, bool) {
	if v := os.Getenv(b.key); v != "" {
		return b.key, v, true
	}
	if b.alias != "" {
		if v := os.Getenv(b.alias); v != "" {
			return b.alias, v, true
		}
	}
	return "", "", false
}

func (b envBinding) apply() error {
	name, raw, ok := b.lookup()
	if !ok || !b.field.CanSet() {
		return nil
	}
	if err := parseInto(b.field, raw); err != nil {
		return fmt.Errorf("failed to set %s: %w", name, err)
	}
	return nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// parseInto 按字段类型解析字符串
func parseInto(field reflect.Value, raw string) error {
	switch {
	case field.Type() == durationType:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
	case field.Kind() == reflect.String:
		field.SetString(raw)
	case field.CanInt():
		n, err := strconv.ParseInt(raw, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(n)
	case field.CanFloat():
		f, err := strconv.ParseFloat(raw, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case field.Kind() == reflect.Bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		field.SetBool(v)
	case field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.String:
		// 逗号分隔，忽略空项
		var items []string
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				items = append(items, p)
			}
		}
		field.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}
	return nil
}

// EnvKeys 列出指定前缀下可识别的全部环境变量名（含别名），已排序
func EnvKeys(prefix string) []string {
	var keys []string
	for _, b := range bindings(reflect.ValueOf(DefaultConfig()).Elem(), prefix) {
		keys = append(keys, b.key)
		if b.alias != "" {
			keys = append(keys, b.alias)
		}
	}
	sort.Strings(keys)
	return keys
}

// =============================================================================
// 🔍 辅助函数
// =============================================================================

// MustLoad 加载配置，失败时 panic
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// LoadFromEnv 仅从环境变量加载配置
func LoadFromEnv() (*Config, error) {
	return NewLoader().Load()
}

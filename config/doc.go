// Package config 提供 designflow 的配置加载。
//
// 加载顺序为默认值、YAML 文件、别名环境变量（PORT、OPENAI_API_KEY）、
// DESIGNFLOW_ 前缀的环境变量，最后运行注册的验证器。EnvKeys 列出全部
// 可识别的变量名。
package config

// Package openaicompat implements llm.Provider for endpoints that speak the
// OpenAI Chat Completions format.
//
// Any service with that wire format (OpenAI, DeepSeek, Qwen, a local
// gateway) is reached by changing BaseURL, DefaultModel and, if needed,
// BuildHeaders:
//
//	p := openaicompat.New(openaicompat.Config{
//	    ProviderName: "openai",
//	    APIKey:       cfg.APIKey,
//	    BaseURL:      "https://api.openai.com",
//	    DefaultModel: "gpt-4o-mini",
//	}, logger)
package openaicompat

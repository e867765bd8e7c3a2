package services

// LLMParameters holds the optional sampling parameters shared by all providers. Nil or zero values
// leave the provider's default in place.
type LLMParameters struct {
	Temperature *float32 `yaml:"temperature"`
	TopP        *float32 `yaml:"topP"`
	MaxTokens   int      `yaml:"maxTokens"`
}

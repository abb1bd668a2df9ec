package config

import "gopkg.in/yaml.v3"

var defaults Config

func init() {
	raw := []byte(`version: v1alpha1

rewrite:
  # Either "gemini" or "openai". The latter works with any
  # chat-completions compatible endpoint set in "base_url".
  provider: gemini
  # Empty means the provider's default model.
  model: ""
  api_key_env: GEMINI_API_KEY
  timeout: 90s
  # Maximum number of blocks rewritten at the same time.
  concurrency: 4
  # Results are memoized by prompt when positive.
  cache_size: 0
  # Dump HTTP traffic to stderr. Honored by the openai provider.
  trace: false

# Environment used to look up the API key.
env:
  use_system_env: true
  sources:
    - ".env"

# Blocks must satisfy all filters to be rewritten in batch.
# "condition" must return a boolean value.
# You can learn about the syntax at https://expr-lang.org/docs/language-definition.
# Available fields are defined in [config.FilterBlockEnv] and [config.FilterDocumentEnv].
# filters:
#   - type: "FILTER_TYPE_BLOCK"
#     condition: "words > 20"

log:
  enabled: false
  path: ""
  verbose: false
`)

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		panic(err)
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	defaults = cfg
}

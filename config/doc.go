// Package config loads the application configuration with viper.
//
// Sources, lowest precedence first:
//  1. built-in defaults
//  2. a YAML file (explicit path, or moa.yaml in . or $HOME/.moa)
//  3. environment variables prefixed with MOA_, nested keys joined by
//     underscores (MOA_GENERATION_TEMPERATURE, MOA_ENGINE_REFERENCE_TIMEOUT)
//
// Provider API keys additionally fall back to the conventional variables
// (TOGETHER_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY, GEMINI_API_KEY).
package config

package provider

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// ProviderConfig holds the resolved configuration for instantiating a
// provider, so the CLI layer does not need to know about config paths.
type ProviderConfig struct {
	// Name is the provider name as it appears in the registry.
	Name string

	// Viper is a subtree scoped to the provider's config block.
	Viper *viper.Viper
}

// ConfigKeyProvider is the config key that holds the active provider name.
const ConfigKeyProvider = "provider"

// ResolveProvider reads the active provider name and its config block.
// Lookup order: explicit value on the store (flag), RESOLV_PROVIDER env
// var, the "provider" key in the config file, then "openai".
func ResolveProvider(v *viper.Viper) ProviderConfig {
	name := v.GetString(ConfigKeyProvider)
	if name == "" {
		name = os.Getenv("RESOLV_PROVIDER")
	}
	if name == "" {
		name = "openai"
	}
	name = strings.ToLower(strings.TrimSpace(name))

	sub := v.Sub(fmt.Sprintf("providers.%s", name))
	if sub == nil {
		// No config file entry; an empty subtree still lets env-var
		// bindings work.
		sub = viper.New()
	}

	bindProviderEnvVars(name, sub)

	return ProviderConfig{Name: name, Viper: sub}
}

// bindProviderEnvVars sets up well-known environment variables for each
// provider so resolv can be configured entirely through the shell.
func bindProviderEnvVars(name string, v *viper.Viper) {
	switch name {
	case "openai":
		v.SetDefault("model", "gpt-4o")
		v.SetDefault("base_url", "https://api.openai.com/v1")
		overrideFromEnv(v, "api_key", "OPENAI_API_KEY")
		overrideFromEnv(v, "model", "OPENAI_API_MODEL")
		overrideFromEnv(v, "base_url", "OPENAI_API_BASE")
	case "anthropic", "claude":
		v.SetDefault("model", "claude-3-5-sonnet-latest")
		v.SetDefault("base_url", "https://api.anthropic.com")
		overrideFromEnv(v, "api_key", "ANTHROPIC_API_KEY")
		overrideFromEnv(v, "model", "ANTHROPIC_MODEL")
		overrideFromEnv(v, "base_url", "ANTHROPIC_API_BASE")
	default:
		// Generic / OpenAI-compatible endpoints.
		prefix := strings.ToUpper(name)
		overrideFromEnv(v, "api_key", fmt.Sprintf("RESOLV_%s_API_KEY", prefix))
		overrideFromEnv(v, "model", fmt.Sprintf("RESOLV_%s_MODEL", prefix))
		overrideFromEnv(v, "base_url", fmt.Sprintf("RESOLV_%s_BASE_URL", prefix))
	}
}

func overrideFromEnv(v *viper.Viper, key, envName string) {
	if value := strings.TrimSpace(os.Getenv(envName)); value != "" {
		v.Set(key, value)
	}
}

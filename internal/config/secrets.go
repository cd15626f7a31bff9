package config

import (
	"fmt"
	"os"
)

// Well-known secret names looked up through a SecretSource.
const (
	SecretOpenAIKey = "OPENAI_API_KEY"
	SecretJWTKey    = "JWT_SECRET"
)

// SecretSource resolves a credential by logical name.
type SecretSource interface {
	Get(name string) (string, error)
}

// EnvSecretSource reads secrets from the environment, falling back to the
// static values from the config file's secrets block.
type EnvSecretSource struct {
	Fallback map[string]string
}

func (s *EnvSecretSource) Get(name string) (string, error) {
	if v := os.Getenv(name); v != "" {
		return v, nil
	}
	if v, ok := s.Fallback[name]; ok && v != "" {
		return v, nil
	}
	return "", fmt.Errorf("secret %s not found", name)
}

// SecretSource returns the source backed by env + this config.
func (c *Config) SecretSource() SecretSource {
	return &EnvSecretSource{Fallback: c.Secrets}
}

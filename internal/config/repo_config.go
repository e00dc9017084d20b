package config

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/diffguard/diffguard/internal/core"
)

// ErrConfigParsing marks a .diffguard.yml file that exists but cannot be parsed.
var ErrConfigParsing = errors.New("config parsing failed")

// ParseRepoConfig parses the content of a repository's .diffguard.yml file.
// The file is fetched from the pull request's head revision by the caller;
// an empty document yields the defaults.
func ParseRepoConfig(data []byte) (*core.RepoConfig, error) {
	cfg := core.DefaultRepoConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigParsing, err)
	}
	return cfg, nil
}

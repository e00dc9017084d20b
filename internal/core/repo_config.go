package core

// RepoConfig represents the structure of the .diffguard.yml file a repository
// may carry at its head revision to tune its own reviews.
type RepoConfig struct {
	// Free-text review guidelines appended to every prompt, in addition to
	// the guidelines from the environment configuration.
	Guidelines string `yaml:"guidelines"`

	// Glob patterns of paths excluded from review, merged with the
	// patterns from the environment configuration.
	Exclude []string `yaml:"exclude"`
}

// DefaultRepoConfig returns a config with default values.
func DefaultRepoConfig() *RepoConfig {
	return &RepoConfig{
		Exclude: []string{},
	}
}

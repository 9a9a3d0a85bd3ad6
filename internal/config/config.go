package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	DefaultThreads         = 50
	DefaultTimeout         = 5
	DefaultTransferTimeout = 30
)

// Load returns the default configuration overlaid with the YAML file at
// configPath. An empty path yields the defaults.
func Load(configPath string) (*Config, error) {
	config := &Config{}

	// Set defaults
	config.Scan.Mode = string(ModeAll)
	config.Scan.Threads = DefaultThreads
	config.Scan.RecordTypes = []string{AllSentinel}
	config.Resolvers.Timeout = DefaultTimeout
	config.Resolvers.TransferTimeout = DefaultTransferTimeout
	config.Output.Format = "json"

	if configPath == "" {
		return config, nil
	}

	// Check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// DefaultPath is where CreateDefault writes the configuration file.
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "dnscan", "config.yaml")
}

// CreateDefault writes a commented default configuration to DefaultPath
// unless one already exists. It returns the path of the file.
func CreateDefault() (string, error) {
	configPath := DefaultPath()
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	}

	defaultConfig := `version: "1.0"
scan:
  mode: "all"            # subdomain, takeover, recon or all
  threads: 50
  record_types:
    - "ALL"              # or an explicit list such as [A, MX, TXT]
  wildcard_check: false

resolvers:
  servers: []            # empty means /etc/resolv.conf, then public resolvers
  timeout: 5             # seconds per query
  transfer_timeout: 30   # seconds per zone transfer

rate_limit:
  global: 0              # queries per second, 0 disables limiting

output:
  format: "json"         # json or csv
  file: ""               # empty disables the findings file
`

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0644); err != nil {
		return "", fmt.Errorf("failed to write default config: %w", err)
	}

	return configPath, nil
}

type profile struct {
	rate    int
	threads int
}

var profiles = map[string]profile{
	"stealth":    {rate: 5, threads: 5},
	"normal":     {rate: 20, threads: DefaultThreads},
	"aggressive": {rate: 0, threads: 100},
}

// ApplyProfile adjusts rate limiting and concurrency. Built-in profiles are
// stealth, normal and aggressive; any other name is looked up as
// profiles/<name>.yaml and merged into the receiver.
func (c *Config) ApplyProfile(profileName string) error {
	if profileName == "" {
		return nil
	}

	if p, ok := profiles[profileName]; ok {
		c.RateLimit.Global = p.rate
		c.Scan.Threads = p.threads
		return nil
	}

	profilePath := filepath.Join("profiles", profileName+".yaml")
	if _, err := os.Stat(profilePath); os.IsNotExist(err) {
		return fmt.Errorf("profile '%s' not found at %s", profileName, profilePath)
	}

	profileConfig, err := Load(profilePath)
	if err != nil {
		return fmt.Errorf("failed to load profile '%s': %w", profileName, err)
	}

	// Override rate limit and concurrency settings
	if profileConfig.RateLimit.Global > 0 {
		c.RateLimit.Global = profileConfig.RateLimit.Global
	}
	if profileConfig.Scan.Threads > 0 {
		c.Scan.Threads = profileConfig.Scan.Threads
	}
	if profileConfig.Resolvers.Timeout > 0 {
		c.Resolvers.Timeout = profileConfig.Resolvers.Timeout
	}
	if len(profileConfig.Resolvers.Servers) > 0 {
		c.Resolvers.Servers = profileConfig.Resolvers.Servers
	}

	return nil
}

package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultProfileName is used when neither --profile nor the config file names one.
const DefaultProfileName = "local"

// Profile is one named working setup of the responder CLI: where the catalog lives
// on disk, how to reach a server and its database, and how to print results.
type Profile struct {
	CatalogDir  string `yaml:"catalog,omitempty"`
	Format      string `yaml:"format,omitempty"`
	BaseURL     string `yaml:"base_url,omitempty"`
	APIKey      string `yaml:"api_key,omitempty"`
	DatabaseDSN string `yaml:"db_dsn,omitempty"`
}

// ProfileKeys lists the keys accepted by Profile.Set, in display order.
var ProfileKeys = []string{"catalog", "format", "base_url", "api_key", "db_dsn"}

// Config is the CLI configuration file.
type Config struct {
	DefaultProfile string             `yaml:"default_profile"`
	Profiles       map[string]Profile `yaml:"profiles"`
}

// Overrides carries values from flags; empty fields leave the profile untouched.
type Overrides Profile

// ErrNoServer is returned by RequireServer for a profile without a server.
var ErrNoServer = errors.New("no server configured")

// ConfigPath returns the config file location. RESPONDER_CONFIG overrides the
// default ~/.responder/config.yaml.
func ConfigPath() (string, error) {
	if p := os.Getenv("RESPONDER_CONFIG"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".responder", "config.yaml"), nil
}

// LoadConfig reads the config file. A missing file yields a config holding only
// the built-in local profile.
func LoadConfig() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Config{
			DefaultProfile: DefaultProfileName,
			Profiles:       map[string]Profile{DefaultProfileName: localProfile()},
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]Profile)
	}
	return &cfg, nil
}

// Save writes cfg to the config file, creating its directory.
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	// api keys and DSNs live here
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Names returns the profile names, sorted.
func (c *Config) Names() []string {
	out := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// InitConfig writes a starter config with a local profile and a prod profile.
// It refuses to overwrite an existing file.
func InitConfig() (string, error) {
	path, err := ConfigPath()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("config file %s already exists", path)
	}
	cfg := &Config{
		DefaultProfile: DefaultProfileName,
		Profiles: map[string]Profile{
			DefaultProfileName: localProfile(),
			"prod": {
				CatalogDir: "./catalog",
				Format:     string(FormatTable),
				BaseURL:    "https://responder.example.com",
			},
		},
	}
	return path, cfg.Save()
}

func localProfile() Profile {
	return Profile{
		CatalogDir: "./catalog",
		Format:     string(FormatTable),
		BaseURL:    "http://localhost:8080",
		APIKey:     "admin-123",
	}
}

// Resolve picks the named profile (the default one when name is empty) and layers
// environment variables and then flag overrides on top of it. An unknown name is
// an error unless overrides alone describe a server.
func (c *Config) Resolve(name string, over Overrides) (Profile, string, error) {
	if name == "" {
		name = c.DefaultProfile
	}
	if name == "" {
		name = DefaultProfileName
	}

	p, ok := c.Profiles[name]
	if !ok && name == DefaultProfileName {
		p, ok = localProfile(), true
	}
	if !ok && (over.BaseURL == "" || over.APIKey == "") {
		return Profile{}, "", fmt.Errorf("profile %q not found in config (known: %s)", name, strings.Join(c.Names(), ", "))
	}

	p = p.merge(Profile{
		CatalogDir:  os.Getenv("RESPONDER_CATALOG"),
		Format:      os.Getenv("RESPONDER_FORMAT"),
		BaseURL:     os.Getenv("RESPONDER_BASE_URL"),
		APIKey:      os.Getenv("RESPONDER_API_KEY"),
		DatabaseDSN: os.Getenv("DB_DSN"),
	})
	p = p.merge(Profile(over))

	if p.CatalogDir == "" {
		p.CatalogDir = "./catalog"
	}
	if p.Format == "" {
		p.Format = string(FormatTable)
	}
	if _, err := ParseFormat(p.Format); err != nil {
		return Profile{}, "", fmt.Errorf("profile %q: %w", name, err)
	}
	return p, name, nil
}

func (p Profile) merge(top Profile) Profile {
	pick := func(base, over string) string {
		if over != "" {
			return over
		}
		return base
	}
	return Profile{
		CatalogDir:  pick(p.CatalogDir, top.CatalogDir),
		Format:      pick(p.Format, top.Format),
		BaseURL:     pick(p.BaseURL, top.BaseURL),
		APIKey:      pick(p.APIKey, top.APIKey),
		DatabaseDSN: pick(p.DatabaseDSN, top.DatabaseDSN),
	}
}

// RequireServer checks that remote commands can reach a server.
func (p Profile) RequireServer() error {
	if p.BaseURL == "" || p.APIKey == "" {
		return fmt.Errorf("%w: set base_url and api_key in the profile, RESPONDER_BASE_URL/RESPONDER_API_KEY or --base-url/--api-key", ErrNoServer)
	}
	return nil
}

// Set assigns one profile key. format is checked against the supported formats.
func (p *Profile) Set(key, value string) error {
	switch key {
	case "catalog":
		p.CatalogDir = value
	case "format":
		if _, err := ParseFormat(value); err != nil {
			return err
		}
		p.Format = value
	case "base_url":
		p.BaseURL = strings.TrimRight(value, "/")
	case "api_key":
		p.APIKey = value
	case "db_dsn":
		p.DatabaseDSN = value
	default:
		return fmt.Errorf("unknown key %q, valid keys: %s", key, strings.Join(ProfileKeys, ", "))
	}
	return nil
}

// Masked returns the profile as key/value pairs in ProfileKeys order, with secrets
// shortened for display.
func (p Profile) Masked() [][2]string {
	return [][2]string{
		{"catalog", p.CatalogDir},
		{"format", p.Format},
		{"base_url", p.BaseURL},
		{"api_key", mask(p.APIKey)},
		{"db_dsn", maskDSN(p.DatabaseDSN)},
	}
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) > 4 {
		return s[:4] + "***"
	}
	return "***"
}

// maskDSN hides the password of a postgres URL.
func maskDSN(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return mask(dsn)
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return dsn
	}
	user, _, hasPass := strings.Cut(creds, ":")
	if !hasPass {
		return dsn
	}
	return scheme + "://" + user + ":***@" + host
}

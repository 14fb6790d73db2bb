package config

import (
	"cmp"
	"errors"
	"fmt"
	"github.com/goccy/go-json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	instance   *Config
	once       sync.Once
	mu         sync.RWMutex
	configPath string
)

// Client is the connection settings of a single daemon.
type Client struct {
	Name               string `json:"name,omitempty"`
	Type               string `json:"type,omitempty"` // porla
	Host               string `json:"host,omitempty"`
	Port               int    `json:"port,omitempty"`
	UseSsl             bool   `json:"use_ssl,omitempty"`
	SkipTLSVerify      bool   `json:"skip_tls_verify,omitempty"` // self-signed daemon certificates
	UrlBase            string `json:"url_base,omitempty"`
	Token              string `json:"token,omitempty"`
	Preset             string `json:"preset,omitempty"`
	SavePath           string `json:"save_path,omitempty"`
	Category           string `json:"category,omitempty"`
	PostImportCategory string `json:"post_import_category,omitempty"`
	RateLimit          string `json:"rate_limit,omitempty"` // 200/minute or 10/second
	Proxy              string `json:"proxy,omitempty"`
}

type RemotePathMapping struct {
	Host       string `json:"host,omitempty"`
	RemotePath string `json:"remote_path,omitempty"`
	LocalPath  string `json:"local_path,omitempty"`
}

type Config struct {
	LogLevel           string              `json:"log_level,omitempty"`
	Port               string              `json:"port,omitempty"`
	PollInterval       string              `json:"poll_interval,omitempty"` // 30s, 1m, ...
	Clients            []Client            `json:"clients,omitempty"`
	RemotePathMappings []RemotePathMapping `json:"remote_path_mappings,omitempty"`
	DiscordWebhook     string              `json:"discord_webhook_url,omitempty"`
	Path               string              `json:"-"` // Path to the data folder
}

func (c *Config) JsonFile() string {
	return filepath.Join(c.Path, "config.json")
}

func (c *Config) LogsDir() string {
	return filepath.Join(c.Path, "logs")
}

func (c *Config) loadConfig() error {
	if configPath == "" {
		return fmt.Errorf("config path not set")
	}
	loaded, err := Load(configPath)
	if err != nil {
		return err
	}
	*c = *loaded
	return nil
}

func (c *Config) applyDefaults() {
	c.LogLevel = cmp.Or(c.LogLevel, "info")
	c.Port = cmp.Or(c.Port, "8383")
	c.PollInterval = cmp.Or(c.PollInterval, "30s")
	for i := range c.Clients {
		c.Clients[i] = updateClient(c.Clients[i])
	}
}

func updateClient(cl Client) Client {
	cl.Type = cmp.Or(cl.Type, "porla")
	cl.Name = cmp.Or(cl.Name, cl.Type)
	cl.Host = cmp.Or(cl.Host, "localhost")
	cl.SavePath = cmp.Or(cl.SavePath, "/data/downloads")
	if cl.Port == 0 {
		cl.Port = 1337
	}
	return cl
}

func validateClients(clients []Client) error {
	if len(clients) == 0 {
		return errors.New("no clients configured")
	}
	seen := make(map[string]struct{}, len(clients))
	for _, cl := range clients {
		if _, ok := seen[cl.Name]; ok {
			return fmt.Errorf("duplicate client name %q", cl.Name)
		}
		seen[cl.Name] = struct{}{}
		if cl.Type != "porla" {
			return fmt.Errorf("client %s: unsupported type %q", cl.Name, cl.Type)
		}
	}
	return nil
}

func validateMappings(mappings []RemotePathMapping) error {
	for _, m := range mappings {
		if m.Host == "" {
			return errors.New("remote path mapping host is required")
		}
		if m.RemotePath == "" || m.LocalPath == "" {
			return fmt.Errorf("remote path mapping for %s needs both remote_path and local_path", m.Host)
		}
	}
	return nil
}

func ValidateConfig(config *Config) error {
	if err := validateClients(config.Clients); err != nil {
		return fmt.Errorf("clients validation error: %w", err)
	}
	if err := validateMappings(config.RemotePathMappings); err != nil {
		return fmt.Errorf("remote path mappings validation error: %w", err)
	}
	if _, err := time.ParseDuration(config.PollInterval); err != nil {
		return fmt.Errorf("invalid poll_interval %q: %w", config.PollInterval, err)
	}
	return nil
}

// GetPollInterval returns the worker interval, falling back to 30s.
func (c *Config) GetPollInterval() time.Duration {
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

func (c *Config) GetClient(name string) (Client, bool) {
	for _, cl := range c.Clients {
		if cl.Name == name {
			return cl, true
		}
	}
	return Client{}, false
}

func SetConfigPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("config path %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("config path %s is not a directory", path)
	}
	configPath = path
	return nil
}

func Get() *Config {
	once.Do(func() {
		cfg := &Config{}
		if err := cfg.loadConfig(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "configuration Error: %v\n", err)
			os.Exit(1)
		}
		mu.Lock()
		instance = cfg
		mu.Unlock()
	})
	mu.RLock()
	defer mu.RUnlock()
	return instance
}

// Load reads and validates the config without touching the singleton.
func Load(path string) (*Config, error) {
	c := &Config{Path: path}
	file, err := os.ReadFile(c.JsonFile())
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(file, c); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	c.applyDefaults()
	if err := ValidateConfig(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the configuration from disk. An invalid file leaves the
// current configuration in place.
func Reload() (*Config, error) {
	cfg := &Config{}
	if err := cfg.loadConfig(); err != nil {
		return nil, err
	}
	mu.Lock()
	instance = cfg
	mu.Unlock()
	once.Do(func() {})
	return cfg, nil
}

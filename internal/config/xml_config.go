// Package config provides file-based configuration for the OCR scanner server and front end.
//
// Configuration is stored as XML (the default, auto-generated on first run) or
// YAML when the file name ends in .yaml or .yml. Environment variables, optionally
// loaded from a .env file, override individual values.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppConfig represents the root configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"OCRScanner" yaml:"-"`

	Server   ServerConfig   `xml:"Server" yaml:"server"`
	Storage  StorageConfig  `xml:"Storage" yaml:"storage"`
	OCR      OCRConfig      `xml:"OCR" yaml:"ocr"`
	Client   ClientConfig   `xml:"Client" yaml:"client"`
	Advanced AdvancedConfig `xml:"Advanced" yaml:"advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port" yaml:"port"`
	BindAddress  string `xml:"BindAddress" yaml:"bindAddress"`
	EnableCORS   bool   `xml:"EnableCORS" yaml:"enableCors"`
	AllowOrigins string `xml:"AllowOrigins" yaml:"allowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds" yaml:"readTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds" yaml:"writeTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds" yaml:"idleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit" yaml:"bodyLimit"`
}

// StorageConfig contains file storage settings
type StorageConfig struct {
	DataDirectory    string `xml:"DataDirectory" yaml:"dataDirectory"`
	UploadsDirectory string `xml:"UploadsDirectory" yaml:"uploadsDirectory"`
	HistoryDatabase  string `xml:"HistoryDatabase" yaml:"historyDatabase"`
	EnableHistory    bool   `xml:"EnableHistory" yaml:"enableHistory"`
}

// OCRConfig describes the external OCR engine the gateway relays to
type OCRConfig struct {
	EngineURL          string `xml:"EngineURL" yaml:"engineUrl"`
	TimeoutSeconds     int    `xml:"TimeoutSeconds" yaml:"timeoutSeconds"`
	MaxUploadSizeBytes int64  `xml:"MaxUploadSizeBytes" yaml:"maxUploadSizeBytes"`
	AllowedExtensions  string `xml:"AllowedExtensions" yaml:"allowedExtensions"`
}

// ClientConfig contains settings for the terminal front end
type ClientConfig struct {
	ServerURL           string `xml:"ServerURL" yaml:"serverUrl"`
	DownloadDirectory   string `xml:"DownloadDirectory" yaml:"downloadDirectory"`
	RequestTimeout      int    `xml:"RequestTimeoutSeconds" yaml:"requestTimeoutSeconds"`
	NotificationSeconds int    `xml:"NotificationSeconds" yaml:"notificationSeconds"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel             string `xml:"LogLevel" yaml:"logLevel"`
	LogFormat            string `xml:"LogFormat" yaml:"logFormat"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging" yaml:"enableRequestLogging"`
	DuckDBThreads        int    `xml:"DuckDBThreads" yaml:"duckdbThreads"`
	DuckDBMemoryLimit    string `xml:"DuckDBMemoryLimit" yaml:"duckdbMemoryLimit"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         5000,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 600,
			IdleTimeout:  120,
			BodyLimit:    "17M",
		},
		Storage: StorageConfig{
			DataDirectory:    "./data",
			UploadsDirectory: "./data/uploads",
			HistoryDatabase:  "./data/history.duckdb",
			EnableHistory:    true,
		},
		OCR: OCRConfig{
			EngineURL:          "http://localhost:8000",
			TimeoutSeconds:     600,
			MaxUploadSizeBytes: 16 * 1024 * 1024,
			AllowedExtensions:  "png,jpg,jpeg,gif,bmp,tiff,webp,pdf",
		},
		Client: ClientConfig{
			ServerURL:           "http://localhost:5000",
			DownloadDirectory:   ".",
			RequestTimeout:      0,
			NotificationSeconds: 3,
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			LogFormat:            "console",
			EnableRequestLogging: true,
			DuckDBThreads:        2,
			DuckDBMemoryLimit:    "256MB",
		},
	}
}

// LoadConfig loads configuration from an XML or YAML file, creating it with
// defaults if it does not exist. Variables from a .env file next to the working
// directory are loaded first so they can act as overrides.
func LoadConfig(configPath string) (*AppConfig, error) {
	_ = godotenv.Load()

	config := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if isYAML(configPath) {
			err = yaml.Unmarshal(data, config)
		} else {
			err = xml.Unmarshal(data, config)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// LoadOrDefault loads configPath, or returns defaults with environment
// overrides applied when configPath is empty. Unlike LoadConfig it never writes
// a file for an empty path.
func LoadOrDefault(configPath string) (*AppConfig, error) {
	if configPath != "" {
		return LoadConfig(configPath)
	}
	_ = godotenv.Load()
	config := DefaultConfig()
	config.applyEnvironmentOverrides()
	return config, nil
}

// Save saves the configuration, as YAML for .yaml/.yml paths and XML otherwise.
func (c *AppConfig) Save(configPath string) error {
	var content []byte
	if isYAML(configPath) {
		output, err := yaml.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		content = append([]byte("# OCR Scanner configuration\n# This file is auto-generated on first run\n\n"), output...)
	} else {
		output, err := xml.MarshalIndent(c, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		header := []byte(xml.Header + "\n<!-- OCR Scanner Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
		content = append(header, output...)
	}

	if dir := filepath.Dir(configPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
		c.Storage.UploadsDirectory = filepath.Join(dataDir, "uploads")
		c.Storage.HistoryDatabase = filepath.Join(dataDir, "history.duckdb")
	}

	if engine := os.Getenv("OCR_ENGINE_URL"); engine != "" {
		c.OCR.EngineURL = engine
	}

	if server := os.Getenv("OCR_SERVER_URL"); server != "" {
		c.Client.ServerURL = server
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Advanced.LogLevel = level
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	for _, p := range []*string{
		&c.Storage.DataDirectory,
		&c.Storage.UploadsDirectory,
		&c.Storage.HistoryDatabase,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
}

// GetDataDir returns the absolute data directory path
func (c *AppConfig) GetDataDir() string {
	return c.Storage.DataDirectory
}

// GetUploadDir returns the absolute uploads directory path
func (c *AppConfig) GetUploadDir() string {
	return c.Storage.UploadsDirectory
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// EngineTimeout returns the relay timeout to the OCR engine.
func (c *AppConfig) EngineTimeout() time.Duration {
	return time.Duration(c.OCR.TimeoutSeconds) * time.Second
}

// ClientTimeout returns the front end request timeout; zero means none.
func (c *AppConfig) ClientTimeout() time.Duration {
	return time.Duration(c.Client.RequestTimeout) * time.Second
}

// NotificationWindow returns how long transient notifications stay visible.
func (c *AppConfig) NotificationWindow() time.Duration {
	return time.Duration(c.Client.NotificationSeconds) * time.Second
}

// AllowedExtensions returns the gateway extension allow-list, lower-cased without dots.
func (c *AppConfig) AllowedExtensions() []string {
	var exts []string
	for _, e := range strings.Split(c.OCR.AllowedExtensions, ",") {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			exts = append(exts, e)
		}
	}
	return exts
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.UploadsDirectory,
	}
	if c.Storage.HistoryDatabase != "" {
		dirs = append(dirs, filepath.Dir(c.Storage.HistoryDatabase))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

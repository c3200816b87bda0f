package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the application configuration
type Config struct {
	// Thread store settings
	StorePath string
	LogLevel  string

	// Domains classified as internal when aggregating participants
	InternalDomains []string

	// Optional mailbox sync source
	Mailbox *MailboxConfig
}

// MailboxConfig holds IMAP settings for the mailbox sync source
type MailboxConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Folder   string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		StorePath:       getEnv("STORE_PATH", "/data/threads.db"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		InternalDomains: getEnvList("INTERNAL_DOMAINS"),
	}

	if getEnv("IMAP_HOST", "") != "" {
		mailbox, err := loadMailbox()
		if err != nil {
			return nil, fmt.Errorf("failed to load mailbox settings: %w", err)
		}
		cfg.Mailbox = mailbox
	}

	return cfg, nil
}

// loadMailbox loads the IMAP sync source from environment variables
func loadMailbox() (*MailboxConfig, error) {
	host := getEnv("IMAP_HOST", "")
	username := getEnv("IMAP_USERNAME", "")
	password := getEnv("IMAP_PASSWORD", "")

	if host == "" {
		return nil, fmt.Errorf("IMAP_HOST is required")
	}
	if username == "" || password == "" {
		return nil, fmt.Errorf("IMAP_USERNAME and IMAP_PASSWORD are required")
	}

	return &MailboxConfig{
		Host:     host,
		Port:     getEnvInt("IMAP_PORT", 993),
		Username: username,
		Password: password,
		Folder:   getEnv("IMAP_FOLDER", "INBOX"),
	}, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.StorePath == "" {
		return fmt.Errorf("STORE_PATH is required")
	}

	if c.Mailbox != nil {
		if c.Mailbox.Port < 1 || c.Mailbox.Port > 65535 {
			return fmt.Errorf("invalid IMAP_PORT")
		}
	}

	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as an integer or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvList gets a comma-separated environment variable as a trimmed list
func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

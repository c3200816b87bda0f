package config

import "testing"

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STORE_PATH", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("INTERNAL_DOMAINS", "")
	t.Setenv("IMAP_HOST", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.StorePath != "/data/threads.db" {
		t.Errorf("store path = %q", cfg.StorePath)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
	if cfg.InternalDomains != nil {
		t.Errorf("internal domains = %v", cfg.InternalDomains)
	}
	if cfg.Mailbox != nil {
		t.Error("expected no mailbox config without IMAP_HOST")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadConfigInternalDomains(t *testing.T) {
	t.Setenv("INTERNAL_DOMAINS", "acme.com, corp.io ,,")
	t.Setenv("IMAP_HOST", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.InternalDomains) != 2 {
		t.Fatalf("internal domains = %v", cfg.InternalDomains)
	}
	if cfg.InternalDomains[0] != "acme.com" || cfg.InternalDomains[1] != "corp.io" {
		t.Errorf("internal domains = %v", cfg.InternalDomains)
	}
}

func TestLoadConfigMailbox(t *testing.T) {
	t.Setenv("IMAP_HOST", "imap.acme.com")
	t.Setenv("IMAP_USERNAME", "sync@acme.com")
	t.Setenv("IMAP_PASSWORD", "secret")
	t.Setenv("IMAP_PORT", "")
	t.Setenv("IMAP_FOLDER", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Mailbox == nil {
		t.Fatal("expected mailbox config")
	}
	if cfg.Mailbox.Port != 993 {
		t.Errorf("port = %d", cfg.Mailbox.Port)
	}
	if cfg.Mailbox.Folder != "INBOX" {
		t.Errorf("folder = %q", cfg.Mailbox.Folder)
	}
}

func TestLoadConfigMailboxMissingCredentials(t *testing.T) {
	t.Setenv("IMAP_HOST", "imap.acme.com")
	t.Setenv("IMAP_USERNAME", "")
	t.Setenv("IMAP_PASSWORD", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected an error when IMAP credentials are missing")
	}
}

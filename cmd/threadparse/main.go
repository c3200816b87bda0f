package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/aacamara/mailthread/internal/config"
	"github.com/aacamara/mailthread/internal/mailbox"
	"github.com/aacamara/mailthread/internal/store"
	"github.com/aacamara/mailthread/pkg/mailparse"
)

var (
	version     = "dev"
	showVersion = flag.Bool("version", false, "Show version information")
	filePath    = flag.String("file", "", "Path to an email artifact (.eml, .mbox, .msg, .txt) to parse")
	syncMailbox = flag.Bool("sync", false, "Fetch and parse messages from the configured IMAP mailbox")
	syncLimit   = flag.Uint("limit", 100, "Maximum messages to fetch when syncing")
	ownerKey    = flag.String("owner", "", "Owner key threads are stored under")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("threadparse version %s\n", version)
		os.Exit(0)
	}

	// Set up logging
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stderr)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if *filePath == "" && !*syncMailbox {
		logger.Fatal("Either -file or -sync is required")
	}

	// Initialize thread store
	db, err := store.Open(cfg.StorePath, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open thread store")
	}
	defer db.Close()

	threadStore := store.NewStore(db, logger)
	engine := mailparse.NewEngine(threadStore, logger)

	if *filePath != "" {
		if err := parseFile(engine, cfg, *filePath, *ownerKey); err != nil {
			logger.WithError(err).Fatal("Parse failed")
		}
		return
	}

	if err := syncFromMailbox(engine, cfg, logger, uint32(*syncLimit), *ownerKey); err != nil {
		logger.WithError(err).Fatal("Mailbox sync failed")
	}
}

// parseFile runs one artifact through the engine and prints the result.
func parseFile(engine *mailparse.Engine, cfg *config.Config, path, owner string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	result := engine.Parse(mailparse.Input{
		RawContent:      raw,
		FileName:        filepath.Base(path),
		InternalDomains: cfg.InternalDomains,
		OwnerKey:        owner,
	})

	return printResult(result)
}

// syncFromMailbox fetches raw messages from IMAP and parses each as a
// standalone structured artifact. One bad message never stops the batch.
func syncFromMailbox(engine *mailparse.Engine, cfg *config.Config, logger *logrus.Logger, limit uint32, owner string) error {
	if cfg.Mailbox == nil {
		return fmt.Errorf("no mailbox configured; set IMAP_HOST, IMAP_USERNAME and IMAP_PASSWORD")
	}

	client := mailbox.NewClient(cfg.Mailbox, logger)
	defer client.Close()

	raws, err := client.FetchRaw(limit)
	if err != nil {
		return err
	}

	for i, raw := range raws {
		result := engine.Parse(mailparse.Input{
			RawContent:      raw,
			FileName:        fmt.Sprintf("mailbox-%d.eml", i),
			InternalDomains: cfg.InternalDomains,
			OwnerKey:        owner,
		})
		if !result.Success {
			logger.WithField("message", i).WithField("error", result.Error).Warn("Skipped message")
			continue
		}
		if err := printResult(result); err != nil {
			return err
		}
	}

	return nil
}

func printResult(result mailparse.Result) error {
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

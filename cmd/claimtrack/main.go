package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/teleclaims/claimtrack/internal/claim"
	"github.com/teleclaims/claimtrack/internal/ocr"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("claimtrack")
	var (
		port        = fs.IntLong("port", 8080, "HTTP server port")
		dbPath      = fs.StringLong("db", "claimtrack.db", "Database file path")
		archivePath = fs.StringLong("archive", "./receipts", "Receipt image archive directory")
		adminIDs    = fs.StringLong("admin-ids", "", "Comma-separated list of admin user IDs")
		provider    = fs.StringLong("ocr-provider", "ocrspace", "OCR provider: 'ocrspace' or 'gemini'")
		ocrSpaceKey = fs.StringLong("ocrspace-key", "", "OCR.space API key (or set OCR_API_KEY env var)")
		ocrSpaceURL = fs.StringLong("ocrspace-url", "https://api.ocr.space/parse/image", "OCR.space API endpoint")
		geminiKey   = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("CLAIMTRACK"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	admins := claim.ParseAdminIDs(*adminIDs)
	if len(admins) == 0 {
		slog.Warn("No admin IDs configured; approve/reject will be rejected for every caller")
	}

	// Initialize database
	slog.Info("Initializing database...")
	db, err := claim.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize OCR extractor based on provider
	var extractor ocr.Extractor
	switch *provider {
	case "ocrspace":
		apiKey := *ocrSpaceKey
		if apiKey == "" {
			apiKey = os.Getenv("OCR_API_KEY")
		}
		if apiKey == "" {
			slog.Error("OCR.space API key is required. Set --ocrspace-key flag or OCR_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing OCR.space extractor...", "endpoint", *ocrSpaceURL)
		extractor, err = ocr.NewOCRSpace(*ocrSpaceURL, apiKey)
		if err != nil {
			slog.Error("Failed to initialize OCR.space", "error", err)
			os.Exit(1)
		}
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini extractor...", "model", *geminiModel)
		extractor, err = ocr.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid OCR provider", "provider", *provider, "valid", "ocrspace or gemini")
		os.Exit(1)
	}
	defer extractor.Close()

	// Initialize receipt image archive
	slog.Info("Initializing archive...")
	archive, err := claim.NewLocalArchive(*archivePath)
	if err != nil {
		slog.Error("Failed to initialize archive", "error", err)
		os.Exit(1)
	}

	// Initialize service and server
	claimService := claim.NewService(db, extractor, archive, admins)
	server := claim.NewServer(claimService)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "admins", len(admins))

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}

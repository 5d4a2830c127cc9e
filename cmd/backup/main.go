package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"authgate/internal/config"
	"authgate/internal/database"
	"authgate/internal/logger"
	"authgate/internal/service"
)

func main() {
	// Define subcommands
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	purgeCmd := flag.NewFlagSet("purge-sessions", flag.ExitOnError)

	exportOutput := exportCmd.String("output", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	importInput := importCmd.String("input", "", "Input file path (required)")
	purgeLifetime := purgeCmd.Duration("lifetime", 0, "Session lifetime (default: SESSION_DURATION)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.New(0).Fatal("failed to load config", "error", err)
	}
	log := logger.New(cfg.LogLevel)
	ctx := context.Background()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatal("failed to open database", "error", err)
	}
	defer db.Close()

	// Run migrations to ensure schema is up to date
	if err := db.Migrate(ctx, log); err != nil {
		log.Fatal("failed to run migrations", "error", err)
	}

	backupService := service.NewBackupService(db, log)

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		handleExport(ctx, log, backupService, *exportOutput)

	case "import":
		importCmd.Parse(os.Args[2:])
		if *importInput == "" {
			fmt.Println("Error: -input flag is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		handleImport(ctx, log, backupService, *importInput)

	case "purge-sessions":
		purgeCmd.Parse(os.Args[2:])
		lifetime := *purgeLifetime
		if lifetime == 0 {
			lifetime = cfg.SessionDuration()
		}
		if lifetime <= 0 {
			log.Info("sessions never expire, nothing to purge")
			return
		}
		if _, err := backupService.PurgeSessions(ctx, lifetime, time.Now().UTC()); err != nil {
			log.Fatal("purge failed", "error", err)
		}

	default:
		printUsage()
		os.Exit(1)
	}
}

func handleExport(ctx context.Context, log *logger.Logger, backupService *service.BackupService, outputPath string) {
	if outputPath == "" {
		outputPath = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
	}

	if dir := filepath.Dir(outputPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatal("failed to create output directory", "error", err)
		}
	}

	file, err := os.Create(outputPath)
	if err != nil {
		log.Fatal("failed to create output file", "error", err)
	}
	defer file.Close()

	log.Info("exporting database", "path", outputPath)
	backup, err := backupService.Export(ctx, file)
	if err != nil {
		log.Fatal("export failed", "error", err)
	}
	log.Info("export complete", "users", len(backup.Users), "sessions", len(backup.Sessions))
}

func handleImport(ctx context.Context, log *logger.Logger, backupService *service.BackupService, inputPath string) {
	file, err := os.Open(inputPath)
	if err != nil {
		log.Fatal("failed to open input file", "error", err)
	}
	defer file.Close()

	log.Info("importing database", "path", inputPath)
	if _, err := backupService.Import(ctx, file); err != nil {
		log.Fatal("import failed", "error", err)
	}
}

func printUsage() {
	fmt.Println("authgate database backup tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  backup export [options]           Export users and sessions to a JSON file")
	fmt.Println("  backup import [options]           Merge a JSON backup into the database")
	fmt.Println("  backup purge-sessions [options]   Delete persisted sessions past their lifetime")
	fmt.Println()
	fmt.Println("Export Options:")
	fmt.Println("  -output <file>      Output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	fmt.Println()
	fmt.Println("Import Options:")
	fmt.Println("  -input <file>       Input file path (required)")
	fmt.Println()
	fmt.Println("Purge Options:")
	fmt.Println("  -lifetime <dur>     Session lifetime such as 1h (default: SESSION_DURATION seconds)")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DB_TYPE         Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH         SQLite database path (default: ./a.db)")
	fmt.Println("  DATABASE_URL    PostgreSQL or MySQL connection URL")
}

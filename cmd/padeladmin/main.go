package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"padelmanager/internal/calendar"
	"padelmanager/internal/config"
	"padelmanager/internal/database"
	"padelmanager/internal/repository"
	"padelmanager/internal/service"
)

func main() {
	// Define subcommands
	createAdminCmd := flag.NewFlagSet("create-admin", flag.ExitOnError)
	setPasswordCmd := flag.NewFlagSet("set-password", flag.ExitOnError)
	syncCmd := flag.NewFlagSet("sync", flag.ExitOnError)
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)

	adminEmail := createAdminCmd.String("email", "", "Administrator email (required)")
	adminPassword := createAdminCmd.String("password", "", "Administrator password (required)")
	adminUsername := createAdminCmd.String("username", "", "Display name (default: part of the email before @)")

	resetEmail := setPasswordCmd.String("email", "", "Administrator email (required)")
	resetPassword := setPasswordCmd.String("password", "", "New password (required)")

	syncID := syncCmd.Int64("id", 0, "Lesson to push to the calendar")
	syncAll := syncCmd.Bool("all", false, "Push every lesson to the calendar")

	exportOutput := exportCmd.String("output", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")

	importInput := importCmd.String("input", "", "Input file path (required)")
	importClear := importCmd.Bool("clear", false, "Clear existing data before import (WARNING: destructive)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize database
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations to ensure schema is up to date
	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	authService := service.NewAuthService(repository.NewUserRepository(db), cfg.SessionDuration)

	switch os.Args[1] {
	case "create-admin":
		createAdminCmd.Parse(os.Args[2:])
		requireFlags(createAdminCmd, *adminEmail, *adminPassword)
		user, err := authService.CreateAdmin(*adminUsername, *adminEmail, *adminPassword)
		if err != nil {
			log.Fatalf("Failed to create administrator: %v", err)
		}
		log.Printf("Administrator %s <%s> created", user.Username, user.Email)

	case "set-password":
		setPasswordCmd.Parse(os.Args[2:])
		requireFlags(setPasswordCmd, *resetEmail, *resetPassword)
		if err := authService.SetPassword(*resetEmail, *resetPassword); err != nil {
			log.Fatalf("Failed to set password: %v", err)
		}
		log.Printf("Password updated for %s", *resetEmail)

	case "sync":
		syncCmd.Parse(os.Args[2:])
		if *syncID == 0 && !*syncAll {
			fmt.Println("Error: either -id or -all is required")
			syncCmd.PrintDefaults()
			os.Exit(1)
		}
		handleSync(cfg, db, *syncID, *syncAll)

	case "export":
		exportCmd.Parse(os.Args[2:])
		handleExport(service.NewBackupService(db), *exportOutput)

	case "import":
		importCmd.Parse(os.Args[2:])
		requireFlags(importCmd, *importInput)
		handleImport(service.NewBackupService(db), db, *importInput, *importClear)

	default:
		printUsage()
		os.Exit(1)
	}
}

func requireFlags(fs *flag.FlagSet, values ...string) {
	for _, v := range values {
		if v == "" {
			fmt.Printf("Error: missing required flags for %s\n", fs.Name())
			fs.PrintDefaults()
			os.Exit(1)
		}
	}
}

func handleSync(cfg *config.Config, db *database.DB, lessonID int64, all bool) {
	if !cfg.CalendarEnabled() {
		log.Fatal("Google Calendar is not configured: set GOOGLE_CREDENTIALS_PATH and GOOGLE_CALENDAR_ID")
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	gcal, err := calendar.NewGoogleService(ctx, cfg.GoogleCredentialsPath, cfg.GoogleCalendarID)
	if err != nil {
		log.Fatalf("Failed to connect Google Calendar: %v", err)
	}
	mirror := calendar.NewMirror(gcal, cfg.GoogleCalendarID, loc, cfg.CalendarReminderMinutes)

	lessons := service.NewLessonService(db,
		repository.NewLessonRepository(db),
		repository.NewStudentRepository(db),
		repository.NewLocationRepository(db),
		mirror,
	)

	if all {
		synced, failed, err := lessons.SyncAll(ctx)
		if err != nil {
			log.Fatalf("Sync failed: %v", err)
		}
		log.Printf("Synced %d lessons, %d failed", synced, failed)
		if failed > 0 {
			os.Exit(1)
		}
		return
	}

	lesson, err := lessons.Sync(ctx, lessonID)
	if err != nil {
		log.Fatalf("Sync failed: %v", err)
	}
	log.Printf("Lesson %d synced as event %s", lesson.ID, lesson.GoogleEventID)
}

func handleExport(backupService *service.BackupService, outputPath string) {
	// Generate default filename if not provided
	if outputPath == "" {
		outputPath = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
	}

	if dir := filepath.Dir(outputPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create output directory: %v", err)
		}
	}

	log.Printf("Exporting database to: %s", outputPath)
	if err := backupService.Export(outputPath); err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	if fileInfo, err := os.Stat(outputPath); err == nil {
		log.Printf("Export complete! File size: %.1f KB", float64(fileInfo.Size())/1024)
	}
}

func handleImport(backupService *service.BackupService, db *database.DB, inputPath string, clearData bool) {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		log.Fatalf("Input file does not exist: %s", inputPath)
	}

	if clearData {
		fmt.Print("WARNING: This will delete all students, locations and lessons. Type 'yes' to confirm: ")
		var confirmation string
		fmt.Scanln(&confirmation)
		if confirmation != "yes" {
			log.Println("Import cancelled")
			return
		}

		log.Println("Clearing existing data...")
		if err := clearDatabase(db); err != nil {
			log.Fatalf("Failed to clear database: %v", err)
		}
	}

	log.Printf("Importing database from: %s", inputPath)
	if err := backupService.Import(inputPath); err != nil {
		log.Fatalf("Import failed: %v", err)
	}
	log.Println("Import complete!")
}

// clearDatabase empties the lesson data. Users and sessions stay so the
// operator keeps access.
func clearDatabase(db *database.DB) error {
	tables := []string{"student_lesson", "lessons", "students", "locations"}

	return db.WithTx(func(tx *database.Tx) error {
		for _, table := range tables {
			if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
				return fmt.Errorf("failed to clear table %s: %w", table, err)
			}
			log.Printf("Cleared table: %s", table)
		}
		return nil
	})
}

func printUsage() {
	fmt.Println("PadelManager admin tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  padeladmin create-admin -email <email> -password <password> [-username <name>]")
	fmt.Println("  padeladmin set-password -email <email> -password <password>")
	fmt.Println("  padeladmin sync (-id <lesson id> | -all)")
	fmt.Println("  padeladmin export [-output <file>]")
	fmt.Println("  padeladmin import -input <file> [-clear]")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DATABASE_TYPE              Database type: sqlite, postgres, or mysql (default: mysql)")
	fmt.Println("  DB_PATH                    SQLite database path (default: ./padelmanager.db)")
	fmt.Println("  DATABASE_URL               PostgreSQL or MySQL connection URL")
	fmt.Println("  GOOGLE_CREDENTIALS_PATH    Service account key used by sync")
	fmt.Println("  GOOGLE_CALENDAR_ID         Calendar that mirrors the lessons")
}

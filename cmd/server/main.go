package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"padelmanager/internal/calendar"
	"padelmanager/internal/config"
	"padelmanager/internal/database"
	"padelmanager/internal/handlers"
	"padelmanager/internal/repository"
	"padelmanager/internal/security"
	"padelmanager/internal/service"
	"padelmanager/internal/web"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	startup := handlers.NewStartupStatus(
		handlers.StepDatabase,
		handlers.StepMigrations,
		handlers.StepCalendar,
		handlers.StepTemplates,
		handlers.StepReady,
	)

	// Serve the startup page while the app initializes
	var app atomic.Value
	root := http.NewServeMux()
	root.HandleFunc("GET /health", startup.Health)
	root.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if h, ok := app.Load().(http.Handler); ok {
			h.ServeHTTP(w, r)
			return
		}
		startup.ShowStartupStatus(w, r)
	})

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, authService, handler := initialize(ctx, cfg, startup)
	defer db.Close()
	app.Store(handler)
	startup.MarkReady()
	log.Println("Server ready")

	// Start background session cleanup
	go cleanupExpiredSessions(ctx, authService)

	<-ctx.Done()
	log.Println("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}

// initialize connects every dependency and builds the routes. Any failure is
// fatal.
func initialize(ctx context.Context, cfg *config.Config, startup *handlers.StartupStatus) (*database.DB, *service.AuthService, http.Handler) {
	startup.SetCurrentStep(handlers.StepDatabase)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)
	startup.CompleteStep(handlers.StepDatabase)

	startup.SetCurrentStep(handlers.StepMigrations)
	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations completed successfully")
	startup.CompleteStep(handlers.StepMigrations)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	locationRepo := repository.NewLocationRepository(db)
	lessonRepo := repository.NewLessonRepository(db)

	startup.SetCurrentStep(handlers.StepCalendar)
	var mirror service.CalendarMirror
	if cfg.CalendarEnabled() {
		gcal, err := calendar.NewGoogleService(ctx, cfg.GoogleCredentialsPath, cfg.GoogleCalendarID)
		if err != nil {
			log.Fatalf("Failed to connect Google Calendar: %v", err)
		}
		mirror = calendar.NewMirror(gcal, cfg.GoogleCalendarID, loc, cfg.CalendarReminderMinutes)
		log.Printf("Google Calendar sync enabled for %s", cfg.GoogleCalendarID)
	} else {
		log.Println("Google Calendar sync disabled")
	}
	startup.CompleteStep(handlers.StepCalendar)

	// Initialize services
	authService := service.NewAuthService(userRepo, cfg.SessionDuration)
	studentService := service.NewStudentService(studentRepo)
	locationService := service.NewLocationService(locationRepo)
	dashboardService := service.NewDashboardService(studentRepo, lessonRepo, cfg.LowCreditThreshold)
	lessonService := service.NewLessonService(db, lessonRepo, studentRepo, locationRepo, mirror)

	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppURL, cfg.Debug)
	if err != nil {
		log.Printf("Warning: low credit emails disabled: %v", err)
	} else if emailService.IsEnabled() {
		lessonService.WithCreditNotifier(emailService, cfg.LowCreditThreshold)
		log.Printf("Low credit emails enabled at %d lessons", cfg.LowCreditThreshold)
	}

	startup.SetCurrentStep(handlers.StepTemplates)
	templates, err := web.LoadTemplates(cfg.TemplatesPath)
	if err != nil {
		log.Fatalf("Failed to load templates: %v", err)
	}
	log.Println("Templates loaded successfully")
	startup.CompleteStep(handlers.StepTemplates)

	csrf := security.NewCSRFGenerator(cfg.SessionSecret)
	view := handlers.NewView(templates, csrf, handlers.NewFlashStore(cfg.SessionSecret), handlers.ViewConfig{
		AppName:         cfg.AppName,
		Development:     cfg.IsDevelopment(),
		CalendarEnabled: lessonService.CalendarEnabled(),
		Location:        loc,
	})

	h := &handlers.Handlers{
		Middleware: handlers.NewMiddleware(authService, csrf, security.NewRateLimiter(10, time.Minute)),
		Auth:       handlers.NewAuthHandler(authService, view),
		Dashboard:  handlers.NewDashboardHandler(dashboardService, view),
		Students:   handlers.NewStudentHandler(studentService, lessonService, view),
		Locations:  handlers.NewLocationHandler(locationService, view),
		Lessons:    handlers.NewLessonHandler(lessonService, studentService, locationService, view),
		Startup:    startup,
		Static:     web.StaticHandler(cfg.StaticFilesPath),
	}
	startup.CompleteStep(handlers.StepReady)
	cfg.Debugf("Routes registered")

	return db, authService, h.Routes()
}

// cleanupExpiredSessions periodically removes expired sessions
func cleanupExpiredSessions(ctx context.Context, authService *service.AuthService) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := authService.CleanupExpiredSessions(); err != nil {
				log.Printf("Error cleaning up expired sessions: %v", err)
			}
		}
	}
}

package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erazemk/izgubljeno/internal/api"
	"github.com/erazemk/izgubljeno/internal/auth"
	"github.com/erazemk/izgubljeno/internal/config"
	"github.com/erazemk/izgubljeno/internal/db"
	"github.com/erazemk/izgubljeno/internal/model"
	"github.com/erazemk/izgubljeno/internal/scheduler"
	"github.com/erazemk/izgubljeno/internal/service"
	"github.com/erazemk/izgubljeno/internal/store"
)

type options struct {
	configPath string
	dbPath     string
	addr       string
	adminUser  string
	logPath    string
	initConfig bool
	sweepOnce  bool
}

func parseFlags(args []string) (*options, error) {
	fs := flag.NewFlagSet("izgubljeno", flag.ContinueOnError)
	var o options

	fs.StringVar(&o.configPath, "config", "", "")
	fs.StringVar(&o.configPath, "c", "", "")
	fs.StringVar(&o.dbPath, "db", "", "")
	fs.StringVar(&o.dbPath, "d", "", "")
	fs.StringVar(&o.addr, "addr", "", "")
	fs.StringVar(&o.addr, "a", "", "")
	fs.StringVar(&o.adminUser, "user", "", "")
	fs.StringVar(&o.adminUser, "u", "", "")
	fs.StringVar(&o.logPath, "log", "", "")
	fs.StringVar(&o.logPath, "l", "", "")
	fs.BoolVar(&o.initConfig, "init-config", false, "")
	fs.BoolVar(&o.sweepOnce, "sweep", false, "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: izgubljeno [flags]

Flags:
  -c, -config <path>      TOML configuration file (default: built-in defaults)
  -d, -db <path>          SQLite database path (default: izgubljeno.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -u, -user <name>        admin username on first run (default: Admin)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
      -init-config        write the default configuration to -config and exit
      -sweep              run the lifecycle sweeps once and exit
  -h, -help               show this help and exit
`)
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	if o.initConfig && o.configPath == "" {
		return nil, errors.New("-init-config requires -config")
	}
	return &o, nil
}

// apply overrides configuration values with the flags that were given.
func (o *options) apply(cfg *config.Config) {
	if o.dbPath != "" {
		cfg.Database.Path = o.dbPath
	}
	if o.addr != "" {
		cfg.Server.Addr = o.addr
	}
	if o.adminUser != "" {
		cfg.Auth.AdminUser = o.adminUser
	}
	if o.logPath != "" {
		cfg.Logging.File = o.logPath
	}
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if opts.initConfig {
		if err := config.CreateSample(opts.configPath); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Configuration written to %s\n", opts.configPath)
		return
	}

	cfg, found, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Set up structured logging: INFO/WARN → stdout, ERROR → stderr.
	// Optionally also write to a log file.
	closeLog, err := setupLogger(cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if opts.configPath != "" && !found {
		slog.Warn("config file not found, using defaults", "path", opts.configPath)
	}

	if err := run(cfg, opts.sweepOnce); err != nil {
		slog.Error("fatal error", "error", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.Config, sweepOnce bool) error {
	dbPath := cfg.Database.Path

	// Check if DB exists, auto-init if not.
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		database, password, err := initDatabase(dbPath, cfg.Auth.AdminUser)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		database.Close()

		printInitResult(dbPath, cfg.Auth.AdminUser, password)
		fmt.Println()
	}

	database, err := db.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Ensure schema exists (idempotent).
	if err := db.EnsureSchema(database); err != nil {
		return fmt.Errorf("ensuring database schema: %w", err)
	}
	slog.Info("database ready", "path", dbPath)

	svc := service.New(database, cfg.RetentionPolicy())
	sched, err := scheduler.New(svc, database, slog.Default(), cfg.SchedulerConfig())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if sweepOnce {
		report, err := sched.RunOnce(ctx)
		if err != nil {
			return fmt.Errorf("running sweeps: %w", err)
		}
		fmt.Println(renderReport(report))
		return nil
	}

	// Load JWT secret from database (auto-generated on first run).
	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("getting JWT secret: %w", err)
	}

	router := api.NewRouter(api.Deps{
		DB:          database,
		JWTSecret:   jwtSecret,
		TokenExpiry: cfg.TokenExpiry(),
		Service:     svc,
		Images:      cfg.ImageOptions(),
		Scheduler:   sched,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.LoggingMiddleware(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	schedulerDone := make(chan struct{})
	if cfg.Scheduler.Enabled {
		go func() {
			defer close(schedulerDone)
			sched.Start(ctx)
		}()
	} else {
		close(schedulerDone)
		slog.Info("scheduler disabled")
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stop()
		<-schedulerDone
		return fmt.Errorf("server error: %w", err)
	}

	<-schedulerDone
	slog.Info("server stopped, closing database")
	return nil
}

// initDatabase creates a new database, ensures the schema, and creates the admin user.
func initDatabase(path, adminUsername string) (*sql.DB, string, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening database: %w", err)
	}

	fail := func(err error) (*sql.DB, string, error) {
		database.Close()
		os.Remove(path)
		return nil, "", err
	}

	if err := db.EnsureSchema(database); err != nil {
		return fail(fmt.Errorf("ensuring schema: %w", err))
	}

	password, err := generatePassword(16)
	if err != nil {
		return fail(fmt.Errorf("generating password: %w", err))
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fail(err)
	}

	if _, err := store.CreateUser(context.Background(), database, adminUsername, hash, model.RoleAdmin); err != nil {
		return fail(fmt.Errorf("creating admin user: %w", err))
	}

	return database, password, nil
}

// printInitResult prints the database initialization result to stdout.
func printInitResult(dbPath, username, password string) {
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println("Schema initialized.")
	fmt.Println()
	fmt.Println("Admin account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("The admin can change it after logging in.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/aemoz-unilab/sorteio/internal/api"
	"github.com/aemoz-unilab/sorteio/internal/api/health"
	"github.com/aemoz-unilab/sorteio/internal/draw"
	"github.com/aemoz-unilab/sorteio/internal/metrics"
	"github.com/aemoz-unilab/sorteio/internal/storage"
	"github.com/aemoz-unilab/sorteio/pkg/config"
)

var (
	configFile string
	httpAddr   string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "sorteio-server",
	Short: "Sorteio Server - Participant registry and group draw service",
	Long: `Sorteio Server hosts the student association's event registry:
public participant sign-up, admin management, randomized group draws,
and printable PDF rosters.`,
	RunE: runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sorteio-server %s\n", config.Version)
		fmt.Printf("  commit: %s\n", config.Commit)
		fmt.Printf("  built:  %s\n", config.BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (optional)")
	rootCmd.PersistentFlags().StringVarP(&httpAddr, "address", "a", "", "HTTP listen address")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	// Local development convenience; missing file is fine.
	if err := godotenv.Load(); err == nil {
		log.Printf("loaded environment from .env")
	}

	var cfg *Config

	if configFile != "" {
		var err error
		cfg, err = LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	} else {
		cfg = DefaultConfig()
	}

	cfg.applyEnv()

	// Override with CLI flags
	if httpAddr != "" {
		cfg.Server.Address = httpAddr
	}
	cfg.Verbose = verbose

	// Secrets come from the environment only
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	adminPasswordHash := os.Getenv("ADMIN_PASSWORD_HASH")
	if adminPassword == "" && adminPasswordHash == "" {
		return fmt.Errorf("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH environment variable is required")
	}

	// Auto-create data directory
	dbDir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dbDir, 0750); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	// Initialize storage
	store := storage.NewSQLiteStorage(cfg.Database.Path)
	if err := store.Open(); err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	log.Printf("database initialized at %s", cfg.Database.Path)

	engine := draw.New(store)

	apiCfg := &api.Config{
		Address:           cfg.Server.Address,
		JWTSecret:         []byte(jwtSecret),
		AdminPassword:     adminPassword,
		AdminPasswordHash: adminPasswordHash,
		TokenTTL:          duration(cfg.Auth.TokenTTL),
		AllowedOrigins:    cfg.Server.CORSOrigins,
		RateLimitPerIP:    cfg.API.RateLimitPerIP,
		LoginRateLimit:    cfg.Auth.LoginRateLimit,
		LoginRateWindow:   duration(cfg.Auth.LoginRateWindow),
		QueryTimeout:      duration(cfg.API.QueryTimeout),
		Verbose:           cfg.Verbose,
	}

	srv, err := api.New(apiCfg, store, engine)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	srv.RegisterHealthChecker(health.NewSQLiteChecker(store.DB()))

	// Setup signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("received signal %v, shutting down...", sig)
		cancel()
	}()

	// Metrics server on its own port
	var metricsSrv *metrics.Server
	if cfg.Server.MetricsAddress != "" {
		metrics.SetBuildInfo(config.Version, config.Commit, config.BuildTime)
		metricsSrv = metrics.NewServer(cfg.Server.MetricsAddress)
		go func() {
			if err := metricsSrv.Start(); err != nil {
				log.Printf("metrics server error: %v", err)
			}
		}()
	}

	log.Printf("starting sorteio-server %s", config.Version)

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("run server: %w", err)
	}

	if metricsSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			log.Printf("metrics shutdown error: %v", err)
		}
	}

	log.Printf("server stopped")
	return nil
}

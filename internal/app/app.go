package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/personal-organizer/organizer/internal/config"
	"github.com/personal-organizer/organizer/internal/db"
	"github.com/personal-organizer/organizer/internal/habits"
	"github.com/personal-organizer/organizer/internal/http/api/front"
	"github.com/personal-organizer/organizer/internal/logging"
	"github.com/personal-organizer/organizer/internal/models"
	"github.com/personal-organizer/organizer/internal/ratelimit"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

// openDatabase resolves the DSN from the config file and connects.
func openDatabase(cfg config.AppConfig) (*gorm.DB, error) {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return nil, err
	}
	if summary, errSummary := describeDSN(dsn); errSummary == nil {
		log.Infof("using %s", summary)
	}
	return db.Open(dsn)
}

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	conn, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(conn) }()
	return db.Migrate(conn.WithContext(ctx))
}

// SeedTemplates inserts the built-in goal templates when none exist and
// returns how many were created. A fresh database is migrated first.
func SeedTemplates(ctx context.Context, cfg config.AppConfig) (int, error) {
	conn, err := openDatabase(cfg)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close(conn) }()
	conn = conn.WithContext(ctx)

	if conn.Migrator().HasTable(&models.GoalTemplate{}) {
		return db.SeedSystemTemplates(conn)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return 0, errMigrate
	}
	var seeded int64
	if errCount := conn.Model(&models.GoalTemplate{}).Where("is_system = ?", true).Count(&seeded).Error; errCount != nil {
		return 0, fmt.Errorf("count system templates: %w", errCount)
	}
	return int(seeded), nil
}

// RunServer boots the API server and blocks until ctx is cancelled.
func RunServer(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	serverCfg, err := config.LoadServerConfig(configPath)
	if err != nil {
		return err
	}
	logCloser, err := logging.Setup(logging.Options{
		Debug:  serverCfg.Debug,
		ToFile: serverCfg.LoggingToFile,
		Dir:    serverCfg.LogDir,
	})
	if err != nil {
		return err
	}
	defer func() { _ = logCloser.Close() }()

	jwtConfig, err := config.LoadJWTConfig(configPath)
	if err != nil {
		return err
	}
	if strings.TrimSpace(jwtConfig.Secret) == "" {
		return fmt.Errorf("missing jwt secret (set `jwt.secret` in config file or %s)", config.EnvJWTSecret)
	}

	conn, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if errClose := db.Close(conn); errClose != nil {
			log.WithError(errClose).Warn("close database")
		}
	}()
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	limiter := ratelimit.NewManager(ratelimit.SettingsFromConfig(serverCfg.RateLimit), nil, nil)
	defer func() { _ = limiter.Close() }()

	engine := NewEngine(conn, serverCfg, jwtConfig, limiter)

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	sweeper := habits.NewSweeper(conn, habits.NewService(conn, nil).Reconciler(), serverCfg.Habits.SweepInterval)
	sweeper.Start(sweepCtx)

	srv := &http.Server{
		Addr:              serverCfg.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if errShutdown := srv.Shutdown(shutdownCtx); errShutdown != nil {
			log.Errorf("server shutdown error: %v", errShutdown)
		}
	}()

	log.Infof("starting server on %s (config=%s)", srv.Addr, configPath)
	if errListen := srv.ListenAndServe(); errListen != nil && !errors.Is(errListen, http.ErrServerClosed) {
		return errListen
	}
	log.Info("server stopped")
	return nil
}

// NewEngine builds the gin engine with middleware and routes.
func NewEngine(conn *gorm.DB, serverCfg config.ServerConfig, jwtConfig config.JWTConfig, limiter *ratelimit.Manager) *gin.Engine {
	if serverCfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(front.RequestLogger())
	engine.Use(corsMiddleware(serverCfg.CORS.AllowedOrigins))

	front.RegisterFrontRoutes(engine, conn, jwtConfig, limiter, nil)
	engine.NoRoute(front.NotFound)
	return engine
}

// corsMiddleware allows credentialed requests from the configured origins.
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := strings.TrimRight(c.GetHeader("Origin"), "/")
		if origin != "" && slices.Contains(allowedOrigins, origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
			c.Header("Access-Control-Max-Age", "86400")
			c.Header("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

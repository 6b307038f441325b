package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/Skotchmaster/repair_shop/internal/apperr"
	authhttp "github.com/Skotchmaster/repair_shop/internal/auth/httpserver"
	authmodels "github.com/Skotchmaster/repair_shop/internal/auth/models"
	authrepo "github.com/Skotchmaster/repair_shop/internal/auth/repo"
	authservice "github.com/Skotchmaster/repair_shop/internal/auth/service"
	cataloghttp "github.com/Skotchmaster/repair_shop/internal/catalog/httpserver"
	catalogmodels "github.com/Skotchmaster/repair_shop/internal/catalog/models"
	catalogrepo "github.com/Skotchmaster/repair_shop/internal/catalog/repo"
	"github.com/Skotchmaster/repair_shop/internal/catalog/search"
	catalogservice "github.com/Skotchmaster/repair_shop/internal/catalog/service"
	"github.com/Skotchmaster/repair_shop/internal/mailer"
	"github.com/Skotchmaster/repair_shop/pkg/config"
	pkgdb "github.com/Skotchmaster/repair_shop/pkg/db"
	"github.com/Skotchmaster/repair_shop/pkg/events"
	"github.com/Skotchmaster/repair_shop/pkg/health"
	"github.com/Skotchmaster/repair_shop/pkg/logging"
	middleware "github.com/Skotchmaster/repair_shop/pkg/middleware/auth"
	"github.com/Skotchmaster/repair_shop/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/repair_shop/pkg/middleware/logging"
	"github.com/Skotchmaster/repair_shop/pkg/middleware/ratelimit"
	"github.com/Skotchmaster/repair_shop/pkg/tokens"
)

func openDB(ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	if cfg.DatabaseDriver == "sqlite" {
		return pkgdb.OpenSQLite(cfg.DatabaseURL)
	}
	return pkgdb.Open(ctx, cfg.DatabaseURL)
}

func newPublisher(logger *slog.Logger, brokers []string) (events.Publisher, io.Closer) {
	if len(brokers) == 0 {
		logger.Info("events_disabled", "reason", "KAFKA_BROKERS is empty")
		return events.Nop{}, nil
	}
	if err := events.EnsureTopics(brokers[0], events.TopicAccounts, events.TopicCatalog); err != nil {
		logger.Warn("kafka_topics_error", "error", err)
	}
	prod := events.NewProducer(brokers, logger)
	return prod, prod
}

func newIndex(ctx context.Context, logger *slog.Logger, cfg config.Config) (search.Indexer, bool) {
	if cfg.ElasticURL == "" {
		logger.Info("search_disabled", "reason", "ES_URL is empty")
		return search.Nop{}, false
	}
	client, err := search.NewClient(cfg.ElasticURL, cfg.ElasticUser, cfg.ElasticPassword)
	if err != nil {
		logger.Warn("search_disabled", "reason", "elasticsearch unreachable", "error", err)
		return search.Nop{}, false
	}
	idx := search.NewElastic(client, cfg.ElasticIndex)
	if err := idx.EnsureIndex(ctx); err != nil {
		logger.Warn("search_disabled", "reason", "cannot create index", "error", err)
		return search.Nop{}, false
	}
	return idx, true
}

func newMailer(logger *slog.Logger, cfg config.Config) authservice.WelcomeMailer {
	if cfg.SMTPHost == "" {
		logger.Info("mail_disabled", "reason", "SMTP_HOST is empty")
		return mailer.Nop{}
	}
	return mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
}

func corsMiddleware(origins []string) echo.MiddlewareFunc {
	if len(origins) == 0 {
		return echomw.CORS()
	}
	return echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     origins,
		AllowCredentials: true,
	})
}

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	startCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := openDB(startCtx, cfg)
	if err != nil {
		cancel()
		log.Fatalf("db open: %v", err)
	}
	if err := authmodels.AutoMigrate(db); err != nil {
		cancel()
		log.Fatalf("migrate accounts: %v", err)
	}
	if err := catalogmodels.AutoMigrate(db); err != nil {
		cancel()
		log.Fatalf("migrate catalog: %v", err)
	}

	issuer := tokens.NewIssuer(
		cfg.JWTAccessSecret,
		cfg.JWTRefreshSecret,
		time.Duration(cfg.AccessTTLMin)*time.Minute,
		time.Duration(cfg.RefreshTTLMin)*time.Minute,
	)
	bearer := middleware.NewBearerAuth(issuer)

	rdb := ratelimit.NewRedisClient(startCtx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if rdb == nil {
		logger.Info("rate_limit_local", "reason", "redis not configured or unreachable")
	}

	publisher, publisherCloser := newPublisher(logger, cfg.KafkaBrokers)
	index, indexReady := newIndex(startCtx, logger, cfg)
	cancel()

	authSvc := &authservice.AuthService{
		Repo:   authrepo.New(db),
		Tokens: issuer,
		Events: publisher,
		Mailer: newMailer(logger, cfg),
	}
	catalogSvc := &catalogservice.CatalogService{
		Repo:   catalogrepo.New(db),
		Index:  index,
		Events: publisher,
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = apperr.ErrorHandler
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(corsMiddleware(cfg.CORSOrigins))

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("get sql.DB: %v", err)
	}
	health.Register(e, health.Check{Name: "db", Ping: sqlDB})

	var csrfGuard echo.MiddlewareFunc
	if cfg.CSRFEnabled {
		csrfCfg := csrf.DefaultConfig()
		csrfCfg.SkipPaths = []string{"/auth/login", "/auth/register"}
		csrfGuard = csrf.New(csrfCfg)
	}

	authhttp.Register(e, &authhttp.Deps{
		AuthHandler: &authhttp.AuthHTTP{Svc: authSvc},
		Bearer:      bearer,
		RateLimit: ratelimit.New(ratelimit.Config{
			Prefix:    "rl:auth",
			PerMinute: cfg.RateLimitPerMin,
			Burst:     cfg.RateLimitBurst,
		}, rdb),
		CSRF: csrfGuard,
	})
	cataloghttp.Register(e, &cataloghttp.Deps{
		CatalogHandler: &cataloghttp.CatalogHTTP{Svc: catalogSvc},
		Bearer:         bearer,
	})

	if indexReady {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			n, err := catalogSvc.Reindex(ctx)
			if err != nil {
				logger.Warn("reindex_error", "indexed", n, "error", err)
				return
			}
			logger.Info("reindex_success", "indexed", n)
		}()
	}

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting_down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}
	if publisherCloser != nil {
		if err := publisherCloser.Close(); err != nil {
			logger.Error("kafka_close_error", "error", err)
		}
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := sqlDB.Close(); err != nil {
		logger.Error("db_close_error", "error", err)
	}

	logger.Info("shutdown_complete")
}

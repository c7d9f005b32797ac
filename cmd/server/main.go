package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/enrollkit/modules/registration"
	"github.com/dmitrymomot/enrollkit/pkg/config"
	"github.com/dmitrymomot/enrollkit/pkg/httpserver"
	"github.com/dmitrymomot/enrollkit/pkg/logger"
	"github.com/dmitrymomot/enrollkit/pkg/notifier"
	"github.com/dmitrymomot/enrollkit/pkg/pg"
	"github.com/dmitrymomot/enrollkit/pkg/redis"
	reg "github.com/dmitrymomot/enrollkit/svc/registration"
	"github.com/dmitrymomot/enrollkit/svc/registration/pgstore"
)

type appConfig struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"enrollkit"`

	// Development mode swaps Postgres/Redis/Postmark/Twilio for in-memory
	// stores and a disk notifier.
	DevMode    bool   `env:"DEV_MODE" envDefault:"false"`
	DevMailDir string `env:"DEV_MAIL_DIR" envDefault:"./tmp/mail"`

	HTTP         httpserver.Config
	PG           pg.Config
	Redis        redis.Config
	Registration reg.Config
	Codes        reg.CodeConfig
	Auth         reg.AuthConfig
	Email        notifier.EmailConfig
	SMS          notifier.SMSConfig
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.New(logger.WithEnvironment(cfg.Environment, cfg.ServiceName))
	logger.SetAsDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	var (
		sessions  reg.SessionStore
		codeStore reg.CodeStore
		accounts  reg.AccountStorage
		email     notifier.EmailSender
		sms       notifier.SMSSender
		healthy   []func(context.Context) error
	)

	if cfg.DevMode {
		memSessions := reg.NewMemorySessionStore()
		defer memSessions.Close()
		memSessions.StartCleanup(ctx, time.Minute)
		sessions = memSessions

		memCodes := reg.NewMemoryCodeStore()
		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					_ = memCodes.DeleteExpired(ctx)
				}
			}
		}()
		codeStore = memCodes

		accounts = reg.NewMemoryAccountStorage()

		dev := notifier.NewDevSender(cfg.DevMailDir)
		email, sms = dev, dev

		log.Info("running in development mode, messages land in " + cfg.DevMailDir)
	} else {
		redisClient, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer func() { _ = redisClient.Close() }()
		sessions = reg.NewRedisSessionStore(redisClient)
		codeStore = reg.NewRedisCodeStore(redisClient)
		healthy = append(healthy, redis.Healthcheck(redisClient))

		pool, err := pg.Connect(ctx, cfg.PG)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := pg.Migrate(ctx, pool, cfg.PG, log); err != nil {
			return err
		}
		accounts = pgstore.New(pool)
		healthy = append(healthy, pg.Healthcheck(pool))

		email, err = notifier.NewPostmarkSender(cfg.Email)
		if err != nil {
			return err
		}
		sms, err = notifier.NewTwilioSender(cfg.SMS)
		if err != nil {
			return err
		}
	}

	codes, err := reg.NewCodeService(codeStore, cfg.Codes)
	if err != nil {
		return err
	}
	issuer, err := reg.NewJWTIssuer(cfg.Auth)
	if err != nil {
		return err
	}

	deps := reg.Dependencies{
		Sessions: sessions,
		Codes:    codes,
		Accounts: accounts,
		Issuer:   issuer,
		Email:    email,
		SMS:      sms,
	}
	student, err := reg.NewStudentService(cfg.Registration, deps, reg.WithLogger(log))
	if err != nil {
		return err
	}
	admin, err := reg.NewAdminService(cfg.Registration, deps, reg.WithLogger(log))
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Method(http.MethodGet, "/health", httpserver.HealthCheckHandler(ctx, log, healthy...))
	registration.Routes{Student: student, Admin: admin, Log: log}.Mount(r)

	srv := httpserver.New(cfg.HTTP, httpserver.WithLogger(log))
	return srv.Run(ctx, r)
}

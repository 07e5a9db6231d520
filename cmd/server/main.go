package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/taintedport/taintedport/internal/storage"
	"github.com/taintedport/taintedport/modules/authapi"
	"github.com/taintedport/taintedport/pkg/authn"
	"github.com/taintedport/taintedport/pkg/authz"
	"github.com/taintedport/taintedport/pkg/config"
	"github.com/taintedport/taintedport/pkg/httpserver"
	"github.com/taintedport/taintedport/pkg/jwt"
	"github.com/taintedport/taintedport/pkg/logger"
	"github.com/taintedport/taintedport/pkg/pg"
)

type appConfig struct {
	Environment string        `env:"ENVIRONMENT" envDefault:"development"`
	ServerAddr  string        `env:"SERVER_ADDR" envDefault:":8080"`
	JWTSecret   string        `env:"JWT_SECRET,required"`
	TokenTTL    time.Duration `env:"TOKEN_TTL" envDefault:"168h"`
	Issuer      string        `env:"TOKEN_ISSUER" envDefault:"TaintedPort"`
	BcryptCost  int           `env:"BCRYPT_COST" envDefault:"12"`

	// InsecureJWT relaxes token verification for workshop scenarios.
	// Never enable this outside an isolated lab.
	InsecureJWT bool `env:"INSECURE_JWT" envDefault:"false"`

	DB pg.Config
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.New(logger.WithEnvironment(cfg.Environment, "taintedport"))
	logger.SetAsDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	pool, err := pg.Connect(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, cfg.DB, log); err != nil {
		return err
	}

	var jwtOpts []jwt.Option
	if cfg.InsecureJWT {
		log.Warn("insecure token verification enabled; tokens are not trustworthy")
		jwtOpts = append(jwtOpts, jwt.WithInsecureVerification(log))
	}
	tokens, err := jwt.NewFromString(cfg.JWTSecret, jwtOpts...)
	if err != nil {
		return err
	}

	repo := storage.NewPostgres(pool)
	svc := authn.NewService(repo, tokens,
		authn.WithBcryptCost(cfg.BcryptCost),
		authn.WithTokenTTL(cfg.TokenTTL),
		authn.WithIssuer(cfg.Issuer),
		authn.WithLogger(log),
	)
	gate := authz.NewGate(tokens, repo, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Mount("/", authapi.Router(svc, gate, log))

	srv := httpserver.New(
		httpserver.WithAddr(cfg.ServerAddr),
		httpserver.WithLogger(log),
	)

	log.Info("starting server", slog.String("addr", cfg.ServerAddr))
	return srv.Run(ctx, r)
}

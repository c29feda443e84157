package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"log"

	"github.com/Netflix/go-env"
	"github.com/google/uuid"
	"github.com/seralp/mailcast/internal/domain"
	"github.com/seralp/mailcast/internal/infra/postgresql"
	"github.com/seralp/mailcast/internal/infra/postgresql/migrations"
	"github.com/seralp/mailcast/internal/observability"
	"github.com/seralp/mailcast/internal/repository"
	"go.uber.org/zap"
)

// seederConfig is the seeder's own slice of the environment: it talks to the
// database only and must not require provider credentials.
type seederConfig struct {
	DatabaseDSN string `env:"DATABASE_DSN,required=true"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`
}

// seeder creates an account and prints its API key. Intended for local
// development and first-run setup.
func main() {
	email := flag.String("email", "dev@mailcast.dev", "account email")
	name := flag.String("name", "Dev Account", "account display name")
	flag.Parse()

	var cfg seederConfig
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	users := repository.NewGormUserRepo(db)
	ctx := context.Background()

	if existing, err := users.GetByEmail(ctx, *email); err == nil {
		logger.Info("account already exists",
			zap.String("email", existing.Email),
			zap.String("apiKey", existing.APIKey),
		)
		return
	} else if !errors.Is(err, domain.ErrNotFound) {
		logger.Fatal("account lookup failed", zap.Error(err))
	}

	user := &domain.User{
		ID:     uuid.NewString(),
		Email:  *email,
		Name:   *name,
		APIKey: newAPIKey(),
	}
	if err := users.Create(ctx, user); err != nil {
		logger.Fatal("account creation failed", zap.Error(err))
	}

	logger.Info("account created",
		zap.String("email", user.Email),
		zap.String("apiKey", user.APIKey),
	)
}

func newAPIKey() string {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		panic(err)
	}
	return "mk_" + hex.EncodeToString(raw)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Sfundo-cfc/DBD381-CodeBrew/internal/buildinfo"
	"github.com/Sfundo-cfc/DBD381-CodeBrew/internal/seed"
	"github.com/Sfundo-cfc/DBD381-CodeBrew/pkg/model"
	"github.com/Sfundo-cfc/DBD381-CodeBrew/pkg/server"
	"github.com/Sfundo-cfc/DBD381-CodeBrew/pkg/store"
)

var (
	version    = "dev"
	commitHash = "n/a"
	buildDate  = "<unknown>"
)

func main() {
	// optional: local settings come from a .env file
	_ = godotenv.Load()

	var (
		addr        = flag.String("addr", envOr("HTTP_ADDR", ":8080"), "HTTP listen address")
		verbosity   = flag.Int("v", 0, "log verbosity level")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	info := buildinfo.BuildInfo{Version: version, CommitHash: commitHash, BuildDate: buildDate}
	if *showVersion {
		fmt.Println(info.String())
		return
	}

	log := newLogger(*verbosity)
	log.Info("starting", "build", info.String())

	ctx := context.Background()

	st, cleanup, err := newStore(ctx, log)
	if err != nil {
		log.Error(err, "failed to initialize store")
		os.Exit(1)
	}
	defer cleanup()

	srv := server.New(st, log.WithName("http"))
	if err := srv.Start(*addr); err != nil {
		log.Error(err, "HTTP server failed")
		os.Exit(1)
	}
}

// newStore picks the backing store: a MongoDB deployment when MONGODB_URI
// is set, otherwise an in-memory store seeded with the demo dataset.
func newStore(ctx context.Context, log logr.Logger) (store.Store, func(), error) {
	if uri := os.Getenv("MONGODB_URI"); uri != "" {
		db := envOr("MONGODB_DB", "codebrewmartDB")
		log.Info("using MongoDB store", "db", db)

		m, err := store.NewMongo(ctx, uri, db)
		if err != nil {
			return nil, nil, err
		}
		return m, func() { _ = m.Close(context.Background()) }, nil
	}

	log.Info("using in-memory store with demo data")

	mem := store.NewMemory().WithSchemas(model.Schemas()...)
	if err := seed.Load(ctx, mem); err != nil {
		return nil, nil, err
	}
	return mem, func() {}, nil
}

func newLogger(verbosity int) logr.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-verbosity)) //nolint:gosec
	z, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	return zapr.NewLogger(z)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

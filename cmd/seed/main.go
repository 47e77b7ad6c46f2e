package main

// seed loads a YAML product catalog into the database.

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"github.com/kasuwaapp/kasuwa/internal/catalog"
	"github.com/kasuwaapp/kasuwa/internal/db"
)

func main() {
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelInfo}))

	seedFile := flag.String("file", "products.yaml", "path to the seed catalog file")
	flag.Parse()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	seed, err := catalog.NewParser().ParseFile(*seedFile)
	if err != nil {
		logger.Error("failed to parse seed file", "file", *seedFile, "error", err)
		os.Exit(1)
	}
	products, err := seed.Rows()
	if err != nil {
		logger.Error("invalid seed file", "file", *seedFile, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, databaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	store := db.NewProductStore(pool)
	for _, product := range products {
		if err := store.Create(ctx, product); err != nil {
			logger.Error("failed to insert product", "name", product.Name, "error", err)
			os.Exit(1)
		}
		logger.Info("seeded product", "name", product.Name, "price", product.Price.String())
	}

	logger.Info("seed complete", "products", len(products))
}

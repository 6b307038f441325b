package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"gorm.io/gorm"

	authmodels "github.com/Skotchmaster/repair_shop/internal/auth/models"
	authrepo "github.com/Skotchmaster/repair_shop/internal/auth/repo"
	authservice "github.com/Skotchmaster/repair_shop/internal/auth/service"
	catalogmodels "github.com/Skotchmaster/repair_shop/internal/catalog/models"
	catalogrepo "github.com/Skotchmaster/repair_shop/internal/catalog/repo"
	catalogservice "github.com/Skotchmaster/repair_shop/internal/catalog/service"
	"github.com/Skotchmaster/repair_shop/internal/seed"
	"github.com/Skotchmaster/repair_shop/pkg/config"
	pkgdb "github.com/Skotchmaster/repair_shop/pkg/db"
	"github.com/Skotchmaster/repair_shop/pkg/logging"
	"github.com/Skotchmaster/repair_shop/pkg/tokens"
)

var (
	seedPath = flag.String("file", "seed/sample.yaml", "path to the seed YAML")
	dryRun   = flag.Bool("dry-run", false, "parse the file and print a summary without writing")
)

func main() {
	flag.Parse()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName, "cmd", "seed")
	slog.SetDefault(logger)

	fh, err := os.Open(*seedPath)
	if err != nil {
		log.Fatalf("open seed: %v", err)
	}
	f, err := seed.Load(fh)
	_ = fh.Close()
	if err != nil {
		log.Fatal(err)
	}

	if *dryRun {
		models := 0
		for _, p := range f.Products {
			models += len(p.Models)
		}
		fmt.Printf("admin: %t, products: %d, models: %d\n", f.Admin != nil, len(f.Products), models)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var db *gorm.DB
	if cfg.DatabaseDriver == "sqlite" {
		db, err = pkgdb.OpenSQLite(cfg.DatabaseURL)
	} else {
		config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
		db, err = pkgdb.Open(ctx, cfg.DatabaseURL)
	}
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := authmodels.AutoMigrate(db); err != nil {
		log.Fatalf("migrate accounts: %v", err)
	}
	if err := catalogmodels.AutoMigrate(db); err != nil {
		log.Fatalf("migrate catalog: %v", err)
	}

	s := &seed.Seeder{
		Auth: &authservice.AuthService{
			Repo: authrepo.New(db),
			Tokens: tokens.NewIssuer(cfg.JWTAccessSecret, cfg.JWTRefreshSecret,
				time.Duration(cfg.AccessTTLMin)*time.Minute, time.Duration(cfg.RefreshTTLMin)*time.Minute),
		},
		Catalog: &catalogservice.CatalogService{Repo: catalogrepo.New(db)},
	}

	res, err := s.Apply(logging.IntoContext(ctx, logger), f)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	fmt.Printf("admin created: %t, products created: %d, models created: %d, models updated: %d\n",
		res.AdminCreated, res.ProductsCreated, res.ModelsCreated, res.ModelsUpdated)
}

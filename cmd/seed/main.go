// File: cmd/seed/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/config"
	pg "github.com/srdjanmarjanovic/laravelremote-sub000/internal/infra/db/postgres"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/infra/logging"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/usecase"
)

// Seeds a handful of draft listings so the checkout flow can be exercised
// against a fresh database.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	ownerID := flag.String("owner", "00000000-0000-0000-0000-000000000001", "owner id for the seeded drafts")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	listingUC := usecase.NewListingUseCase(pg.NewListingRepo(pool), logger)

	if existing, err := listingUC.ListByOwner(ctx, *ownerID); err != nil {
		log.Fatalf("list listings: %v", err)
	} else if len(existing) > 0 {
		fmt.Printf("%d listings already present for owner %s. No changes.\n", len(existing), *ownerID)
		return
	}

	titles := []string{
		"Senior Go Engineer (Remote)",
		"Staff Platform Engineer",
		"Backend Engineer, Payments",
	}
	for _, title := range titles {
		l, err := listingUC.CreateDraft(ctx, *ownerID, title)
		if err != nil {
			log.Fatalf("create draft %q: %v", title, err)
		}
		fmt.Printf("seeded draft %s (%s)\n", l.ID, l.Title)
	}
}

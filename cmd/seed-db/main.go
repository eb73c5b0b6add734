package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gstxxx/cantina/internal/domain/customer"
	"github.com/gstxxx/cantina/internal/domain/money"
	"github.com/gstxxx/cantina/internal/domain/product"
	"github.com/gstxxx/cantina/internal/domain/unit"
	"github.com/gstxxx/cantina/internal/storage/postgres"
)

// fixtureJSON is the seed file layout. Product prices are decimal strings
// ("4.50") and are converted to whole cents on insert.
type fixtureJSON struct {
	Units []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"units"`
	Products []struct {
		ID    string          `json:"id"`
		Name  string          `json:"name"`
		Price decimal.Decimal `json:"price"`
	} `json:"products"`
	Customers []struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Phone string `json:"phone"`
		Notes string `json:"notes"`
	} `json:"customers"`
}

func main() {
	var (
		databaseURL string
		fixtureFile string
		tenantID    string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&fixtureFile, "fixture-file", "db/seed/fixtures.json", "path to seed fixture JSON file")
	flag.StringVar(&tenantID, "tenant-id", "default", "tenant to seed data under")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, fixtureFile, tenantID); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, fixtureFile, tenantID string) error {
	slog.Info("reading fixture file", slog.String("path", fixtureFile))

	data, err := os.ReadFile(fixtureFile)
	if err != nil {
		return errors.Wrap(err, "read fixture file")
	}

	var fixture fixtureJSON
	if err := json.Unmarshal(data, &fixture); err != nil {
		return errors.Wrap(err, "parse fixture JSON")
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedUnits(ctx, postgres.NewUnitRepository(pool), fixture, tenantID); err != nil {
		return errors.Wrap(err, "seed units")
	}
	if err := seedProducts(ctx, postgres.NewProductRepository(pool), fixture, tenantID); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedCustomers(ctx, postgres.NewCustomerRepository(pool), fixture, tenantID); err != nil {
		return errors.Wrap(err, "seed customers")
	}

	return nil
}

func seedUnits(ctx context.Context, repo *postgres.UnitRepository, fixture fixtureJSON, tenantID string) error {
	slog.Info("seeding units", slog.Int("count", len(fixture.Units)))

	for _, u := range fixture.Units {
		id := u.ID
		if id == "" {
			id = uuid.New().String()
		}
		if err := repo.Create(ctx, &unit.Unit{
			ID:       id,
			TenantID: tenantID,
			Name:     u.Name,
			Active:   true,
		}); err != nil {
			return errors.Wrapf(err, "create unit %s", u.Name)
		}

		slog.Info("created unit", slog.String("id", id), slog.String("name", u.Name))
	}

	return nil
}

func seedProducts(ctx context.Context, repo *postgres.ProductRepository, fixture fixtureJSON, tenantID string) error {
	slog.Info("seeding products", slog.Int("count", len(fixture.Products)))

	for _, p := range fixture.Products {
		id := p.ID
		if id == "" {
			id = uuid.New().String()
		}
		price := money.FromDecimal(p.Price)
		if err := repo.Create(ctx, &product.Product{
			ID:         id,
			TenantID:   tenantID,
			Name:       p.Name,
			PriceCents: price,
			Active:     true,
		}); err != nil {
			return errors.Wrapf(err, "create product %s", p.Name)
		}

		// Log the price as stored, after rounding to cents.
		slog.Info("created product",
			slog.String("id", id),
			slog.String("name", p.Name),
			slog.String("price", price.Decimal().StringFixed(2)),
		)
	}

	return nil
}

func seedCustomers(ctx context.Context, repo *postgres.CustomerRepository, fixture fixtureJSON, tenantID string) error {
	slog.Info("seeding customers", slog.Int("count", len(fixture.Customers)))

	for _, c := range fixture.Customers {
		id := c.ID
		if id == "" {
			id = uuid.New().String()
		}
		if err := repo.Create(ctx, &customer.Customer{
			ID:       id,
			TenantID: tenantID,
			Name:     c.Name,
			Phone:    c.Phone,
			Notes:    c.Notes,
			Active:   true,
		}); err != nil {
			return errors.Wrapf(err, "create customer %s", c.Name)
		}

		slog.Info("created customer", slog.String("id", id), slog.String("name", c.Name))
	}

	return nil
}

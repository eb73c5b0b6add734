package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/gstxxx/cantina/internal/domain/customer"
	"github.com/gstxxx/cantina/internal/storage/postgres"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 1_000_000
)

// record is one customer row from a legacy export file: name, phone, notes.
type record struct {
	name  string
	phone string
	notes string
}

// fileResult holds the records parsed from a single export file, keyed by
// normalized phone. The first occurrence within a file wins.
type fileResult struct {
	records map[string]record
}

func main() {
	var (
		dataDir     string
		databaseURL string
		tenantID    string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing customers-*.csv.gz export files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&tenantID, "tenant-id", "default", "tenant to import customers under")
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

	if err := run(ctx, dataDir, databaseURL, tenantID); err != nil {
		slog.Error("customer import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("customer import completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL, tenantID string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "customers-*.csv.gz"))
	if err != nil {
		return errors.Wrap(err, "glob export files")
	}
	if len(files) == 0 {
		return errors.Errorf("no customers-*.csv.gz files found in %s", dataDir)
	}

	slog.Info("parsing export files", slog.Int("files", len(files)))

	results, err := parseFiles(ctx, files)
	if err != nil {
		return errors.Wrap(err, "parse export files")
	}

	merged := dedupe(results)

	slog.Info("unique customers found", slog.Int("count", len(merged)))

	if len(merged) == 0 {
		slog.Info("no customers to import")
		return nil
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := writeCustomers(ctx, postgres.NewCustomerRepository(pool), merged, tenantID); err != nil {
		return errors.Wrap(err, "write customers to database")
	}

	return nil
}

// parseFiles streams all export files concurrently, one goroutine per file.
func parseFiles(ctx context.Context, files []string) ([]fileResult, error) {
	results := make([]fileResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(parseFile(ctx, i, f, results))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func parseFile(ctx context.Context, idx int, path string, results []fileResult) func() error {
	return func() error {
		records := make(map[string]record)
		var count uint64

		if err := streamGzCSV(ctx, path, func(row []string) {
			if len(row) < 2 {
				return
			}

			count++
			if count%progressEvery == 0 {
				slog.Info("parse progress",
					slog.String("file", filepath.Base(path)),
					slog.Uint64("rows", count),
				)
			}

			phone := normalizePhone(row[1])
			name := strings.TrimSpace(row[0])
			if phone == "" || name == "" {
				return
			}
			if _, ok := records[phone]; ok {
				return
			}

			rec := record{name: name, phone: phone}
			if len(row) > 2 {
				rec.notes = strings.TrimSpace(row[2])
			}
			records[phone] = rec
		}); err != nil {
			return errors.Wrapf(err, "parse %s", path)
		}

		slog.Info("parse complete",
			slog.String("file", filepath.Base(path)),
			slog.Uint64("rows", count),
			slog.Int("records", len(records)),
		)

		results[idx] = fileResult{records: records}
		return nil
	}
}

// dedupe merges per-file results by phone. A bloom filter front-runs the exact
// map so the common unseen-phone case skips the map lookup; positives are
// confirmed against the map to rule out false positives.
func dedupe(results []fileResult) map[string]record {
	filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
	merged := make(map[string]record)

	for _, r := range results {
		for phone, rec := range r.records {
			if filter.TestString(phone) {
				if _, ok := merged[phone]; ok {
					continue
				}
			}
			filter.AddString(phone)
			merged[phone] = rec
		}
	}

	return merged
}

// streamGzCSV opens a gzip-compressed CSV file and calls fn for each row.
func streamGzCSV(ctx context.Context, path string, fn func(row []string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	reader := csv.NewReader(gz)
	reader.FieldsPerRecord = -1
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "read %s", path)
		}
		fn(row)
	}
}

// normalizePhone strips everything but digits so the same number formatted
// differently across exports dedupes to one record.
func normalizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// writeCustomers inserts all deduplicated customers.
func writeCustomers(ctx context.Context, repo *postgres.CustomerRepository, merged map[string]record, tenantID string) error {
	slog.Info("writing customers to database", slog.Int("count", len(merged)))

	written := 0
	for _, rec := range merged {
		if err := repo.Create(ctx, &customer.Customer{
			ID:       uuid.New().String(),
			TenantID: tenantID,
			Name:     rec.name,
			Phone:    rec.phone,
			Notes:    rec.notes,
			Active:   true,
		}); err != nil {
			return errors.Wrapf(err, "create customer %s", rec.phone)
		}

		written++
		if written%100 == 0 || written == len(merged) {
			slog.Info("write progress", slog.Int("written", written), slog.Int("total", len(merged)))
		}
	}

	return nil
}

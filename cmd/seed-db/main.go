// Command seed-db loads development fixtures: a product catalog from a JSON
// file, the standard promo coupons, and one back-office API key.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/vendora/checkout/internal/domain/auth"
	"github.com/vendora/checkout/internal/storage/postgres"
)

const (
	upsertProductSQL = `INSERT INTO products (id, seller_id, name, price, status, category, track_inventory, quantity, low_stock_threshold)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			seller_id = EXCLUDED.seller_id,
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			status = EXCLUDED.status,
			category = EXCLUDED.category,
			track_inventory = EXCLUDED.track_inventory,
			quantity = EXCLUDED.quantity,
			low_stock_threshold = EXCLUDED.low_stock_threshold,
			updated_at = now()`

	upsertCouponSQL = `INSERT INTO coupons (code, discount_type, value, min_amount, description, active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		ON CONFLICT (code) DO UPDATE SET
			discount_type = EXCLUDED.discount_type,
			value = EXCLUDED.value,
			min_amount = EXCLUDED.min_amount,
			description = EXCLUDED.description,
			active = TRUE`

	upsertAPIKeySQL = `INSERT INTO api_keys (id, key_hash, name, scopes)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			key_hash = EXCLUDED.key_hash,
			name = EXCLUDED.name,
			scopes = EXCLUDED.scopes`
)

type productJSON struct {
	ID                string          `json:"id"`
	SellerID          string          `json:"sellerId"`
	Name              string          `json:"name"`
	Price             decimal.Decimal `json:"price"`
	Status            string          `json:"status"`
	Category          string          `json:"category"`
	TrackInventory    bool            `json:"trackInventory"`
	Quantity          int             `json:"quantity"`
	LowStockThreshold int             `json:"lowStockThreshold"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		apiKey       string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&apiKey, "api-key", "", "back-office API key to seed (or VENDORA_SEED_API_KEY env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("VENDORA_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or VENDORA_SEED_API_KEY")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, apiKey); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, apiKey string) error {
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

	if err := seedProducts(ctx, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedCoupons(ctx, pool); err != nil {
		return errors.Wrap(err, "seed coupons")
	}
	if err := seedAPIKey(ctx, pool, apiKey); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		if p.Status == "" {
			p.Status = "published"
		}
		if _, err := pool.Exec(ctx, upsertProductSQL,
			p.ID, p.SellerID, p.Name, p.Price, p.Status, p.Category,
			p.TrackInventory, p.Quantity, p.LowStockThreshold,
		); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

func seedCoupons(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding standard coupons")

	coupons := []struct {
		code         string
		discountType string
		value        string
		minAmount    string
		description  string
	}{
		{"SAVE10", "percentage", "10", "500", "10% off orders of 500 or more"},
		{"FLAT50", "fixed", "50", "0", "50 off any order"},
		{"FREESHIP", "free-shipping", "0", "0", "Free shipping"},
	}

	for _, c := range coupons {
		if _, err := pool.Exec(ctx, upsertCouponSQL,
			c.code, c.discountType,
			decimal.RequireFromString(c.value),
			decimal.RequireFromString(c.minAmount),
			c.description,
		); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.code)
		}

		slog.Info("upserted coupon", slog.String("code", c.code), slog.String("description", c.description))
	}

	return nil
}

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey string) error {
	slog.Info("seeding back-office API key")

	if _, err := pool.Exec(ctx, upsertAPIKeySQL,
		"default", auth.HashKey(apiKey), "Default back-office key", []string{"back-office"},
	); err != nil {
		return errors.Wrap(err, "upsert default API key")
	}

	slog.Info("upserted API key", slog.String("id", "default"))
	return nil
}

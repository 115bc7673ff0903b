// Package main seeds the order database with a demo catalog, its categories
// and two users (an admin and a customer with a complete address), then
// prints bearer tokens for both so the API can be exercised locally.
//
// Run: go run ./services/order/cmd/seed
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/kitchencart/ecommerce/pkg/database"
	apperrors "github.com/kitchencart/ecommerce/pkg/errors"
	"github.com/kitchencart/ecommerce/pkg/logger"
	"github.com/kitchencart/ecommerce/pkg/middleware"
	"github.com/kitchencart/ecommerce/services/order/internal/config"
	"github.com/kitchencart/ecommerce/services/order/internal/domain"
	"github.com/kitchencart/ecommerce/services/order/internal/repository/postgres"
	"github.com/kitchencart/ecommerce/services/order/migrations"
)

// --------------------------------------------------------------------------
// Seed data definitions
// --------------------------------------------------------------------------

type userDef struct {
	name    string
	email   string
	role    string
	address *domain.Address
}

type productDef struct {
	name         string
	description  string
	category     string
	mrp          int64 // paise
	sellingPrice int64 // paise
	stock        int
}

var users = []userDef{
	{name: "Store Admin", email: "admin@kitchencart.test", role: domain.RoleAdmin},
	{
		name:  "Asha Rao",
		email: "asha@kitchencart.test",
		role:  domain.RoleCustomer,
		address: &domain.Address{
			Name:    "Asha Rao",
			Street:  "14 MG Road",
			City:    "Bengaluru",
			State:   "Karnataka",
			ZipCode: "560001",
			Country: "India",
		},
	},
}

var products = []productDef{
	{"Cast Iron Skillet 10\"", "Pre-seasoned, oven safe.", "cookware", 249900, 189900, 40},
	{"Stainless Steel Pressure Cooker 5L", "Induction base, five-year warranty.", "cookware", 329900, 279900, 25},
	{"Non-Stick Tawa 28cm", "Granite coating, soft-touch handle.", "cookware", 129900, 89900, 60},
	{"Chef Knife 8\"", "High-carbon steel, full tang.", "cutlery", 199900, 149900, 30},
	{"Bamboo Cutting Board", "Reversible, with juice groove.", "cutlery", 79900, 59900, 80},
	{"Glass Storage Jars (Set of 6)", "Airtight bamboo lids.", "storage", 149900, 99900, 50},
	{"Steel Lunch Box 3-Tier", "Leak-proof, insulated bag included.", "storage", 99900, 79900, 45},
	{"Electric Kettle 1.5L", "Auto shut-off, boil-dry protection.", "appliances", 189900, 129900, 35},
	{"Hand Blender 400W", "Two speeds, detachable shaft.", "appliances", 249900, 199900, 20},
	{"Silicone Spatula Set", "Heat resistant to 260C.", "utensils", 49900, 39900, 120},
	{"Wooden Spoon Set", "Teak, set of five.", "utensils", 59900, 59900, 90},
	{"Spice Box with 7 Containers", "Stainless steel masala dabba.", "storage", 89900, 69900, 0},
}

// productID derives a stable id so reruns update instead of duplicating.
func productID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("kitchencart/product/"+name)).String()
}

// --------------------------------------------------------------------------
// main
// --------------------------------------------------------------------------

func main() {
	log.SetFlags(log.Ltime | log.Lmsgprefix)
	log.SetPrefix("[seed] ")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	slogger := logger.New("order-seed", cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// ---------------------------------------------------------------
	// 1. Connect to the order database and migrate
	// ---------------------------------------------------------------
	log.Println("Connecting to order database...")
	pool, err := database.NewPostgresPool(ctx, &database.PostgresConfig{
		Host:     cfg.PostgresHost,
		Port:     cfg.PostgresPort,
		User:     cfg.PostgresUser,
		Password: cfg.PostgresPass,
		DBName:   cfg.PostgresDB,
		SSLMode:  cfg.PostgresSSL,
		MaxConns: 4,
		MinConns: 1,
	}, slogger)
	if err != nil {
		log.Fatalf("connect to database: %v", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, slogger); err != nil {
		log.Fatalf("run migrations: %v", err)
	}
	log.Println("Connected and migrated.")

	// ---------------------------------------------------------------
	// 2. Users via direct SQL (profiles are owned by the identity service)
	// ---------------------------------------------------------------
	log.Println("Seeding users...")
	tokens := make(map[string]string, len(users))
	for _, u := range users {
		var address []byte
		if u.address != nil {
			if address, err = json.Marshal(u.address); err != nil {
				log.Fatalf("marshal address for %s: %v", u.email, err)
			}
		}

		var id string
		err := pool.QueryRow(ctx,
			`INSERT INTO users (name, email, role, address)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, role = EXCLUDED.role,
			     address = EXCLUDED.address, updated_at = NOW()
			 RETURNING id`,
			u.name, u.email, u.role, address,
		).Scan(&id)
		if err != nil {
			log.Fatalf("user %s: %v", u.email, err)
		}
		log.Printf("  User: %s <%s> role=%s (id=%s)", u.name, u.email, u.role, id)

		token, err := middleware.SignToken(cfg.JWTSecret, id, u.email, u.role, 24*time.Hour)
		if err != nil {
			log.Fatalf("sign token for %s: %v", u.email, err)
		}
		tokens[u.email] = token
	}

	// ---------------------------------------------------------------
	// 3. Products through the repository
	// ---------------------------------------------------------------
	log.Println("Seeding products...")
	repo := postgres.NewProductRepository(pool)
	created, updated := 0, 0
	now := time.Now().UTC()
	for _, def := range products {
		p := &domain.Product{
			ID:           productID(def.name),
			Name:         def.name,
			Description:  def.description,
			Category:     def.category,
			MRP:          def.mrp,
			SellingPrice: def.sellingPrice,
			Stock:        def.stock,
			Images:       []string{},
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		p.ApplyDiscount()

		existing, err := repo.GetByID(ctx, p.ID)
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			if err := repo.Create(ctx, p); err != nil {
				log.Fatalf("create product %q: %v", def.name, err)
			}
			created++
		case err != nil:
			log.Fatalf("load product %q: %v", def.name, err)
		default:
			p.CreatedAt = existing.CreatedAt
			if err := repo.Update(ctx, p); err != nil {
				log.Fatalf("update product %q: %v", def.name, err)
			}
			updated++
		}
	}
	log.Printf("  Products: %d created, %d updated", created, updated)

	// ---------------------------------------------------------------
	// 4. Categories named by the products
	// ---------------------------------------------------------------
	log.Println("Seeding categories...")
	categories := postgres.NewCategoryRepository(pool)
	seen := make(map[string]bool)
	added := 0
	for _, def := range products {
		if seen[def.category] {
			continue
		}
		seen[def.category] = true
		c := &domain.Category{
			ID:        uuid.NewSHA1(uuid.NameSpaceURL, []byte("kitchencart/category/"+def.category)).String(),
			Name:      def.category,
			CreatedAt: now,
			UpdatedAt: now,
		}
		err := categories.Create(ctx, c)
		switch {
		case errors.Is(err, apperrors.ErrAlreadyExists):
		case err != nil:
			log.Fatalf("create category %q: %v", def.category, err)
		default:
			added++
		}
	}
	log.Printf("  Categories: %d created, %d present", added, len(seen)-added)

	// ---------------------------------------------------------------
	// Summary
	// ---------------------------------------------------------------
	fmt.Println()
	fmt.Println("Bearer tokens (valid 24h):")
	for _, u := range users {
		fmt.Printf("  %-24s %s\n", u.email, tokens[u.email])
	}
}

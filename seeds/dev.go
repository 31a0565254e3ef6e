package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/argon2"
)

// Dev seed: an admin account and a few sample packages so a fresh database is
// immediately usable. Idempotent via ON CONFLICT DO NOTHING.

const devAdminID = "usr_dev_admin_000000000001"

type pkg struct {
	id             string
	name           string
	price          int
	renewPrice     int
	maxDomains     int
	maxMailboxes   int
	maxAliases     int
	storageLimitGB int
	isPopular      bool
}

var devPackages = []pkg{
	{"pkg_dev_starter_0000000001", "Starter", 300, 250, 1, 5, 10, 5, false},
	{"pkg_dev_business_000000001", "Business", 800, 650, 3, 25, 50, 25, true},
	{"pkg_dev_enterprise_0000001", "Enterprise", 2000, 1700, 10, 100, 200, 100, false},
}

func main() {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	for _, p := range devPackages {
		_, err := pool.Exec(ctx,
			`INSERT INTO packages (id, name, price, renew_price, max_domains, max_mailboxes, max_aliases, storage_limit_gb, is_popular)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (id) DO NOTHING`,
			p.id, p.name, p.price, p.renewPrice, p.maxDomains, p.maxMailboxes, p.maxAliases, p.storageLimitGB, p.isPopular,
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed package %s: %v\n", p.name, err)
			os.Exit(1)
		}
	}

	password := os.Getenv("DEV_ADMIN_PASSWORD")
	if password == "" {
		password = "admin-dev-password"
	}

	hash, err := hashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash password: %v\n", err)
		os.Exit(1)
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO users (id, name, email, password_hash, role, subscription_status)
		 VALUES ($1, $2, $3, $4, 'admin', 'active')
		 ON CONFLICT (id) DO NOTHING`,
		devAdminID, "Dev Admin", "admin@mailpanel.local", hash,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed admin: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("seeded dev packages and admin@mailpanel.local")
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(password), salt, 3, 64*1024, 4, 32)
	return fmt.Sprintf("$argon2id$v=%d$m=65536,t=3,p=4$%s$%s",
		argon2.Version,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

package core

import (
	"context"
	"fmt"
	"time"

	"github.com/edvin/mailpanel/internal/model"
	"github.com/edvin/mailpanel/internal/platform"
)

// PackageInput is the admin-supplied definition of a subscription tier.
type PackageInput struct {
	Name           string
	Price          int
	RenewPrice     int
	MaxDomains     int
	MaxMailboxes   int
	MaxAliases     int
	StorageLimitGB int
	IsPopular      bool
}

type PackageService struct {
	db DB
}

func NewPackageService(db DB) *PackageService {
	return &PackageService{db: db}
}

// List returns all packages, cheapest first. Public, used by the pricing page.
func (s *PackageService) List(ctx context.Context) ([]model.Package, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, price, renew_price, max_domains, max_mailboxes, max_aliases, storage_limit_gb, is_popular, created_at, updated_at
		 FROM packages ORDER BY price ASC`)
	if err != nil {
		return nil, ErrStore("list packages", err)
	}
	defer rows.Close()

	var packages []model.Package
	for rows.Next() {
		var p model.Package
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.RenewPrice, &p.MaxDomains, &p.MaxMailboxes,
			&p.MaxAliases, &p.StorageLimitGB, &p.IsPopular, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, ErrStore("scan package", err)
		}
		packages = append(packages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, ErrStore("iterate packages", err)
	}
	return packages, nil
}

// Get returns a single package.
func (s *PackageService) Get(ctx context.Context, id string) (*model.Package, error) {
	var p model.Package
	err := s.db.QueryRow(ctx,
		`SELECT id, name, price, renew_price, max_domains, max_mailboxes, max_aliases, storage_limit_gb, is_popular, created_at, updated_at
		 FROM packages WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Price, &p.RenewPrice, &p.MaxDomains, &p.MaxMailboxes,
		&p.MaxAliases, &p.StorageLimitGB, &p.IsPopular, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, ErrNotFound("package not found")
	}
	return &p, nil
}

// Create adds a package. Admin only, enforced by the caller.
func (s *PackageService) Create(ctx context.Context, in PackageInput) (*model.Package, error) {
	if err := validatePackage(in); err != nil {
		return nil, err
	}

	now := time.Now()
	p := &model.Package{
		ID:             platform.NewID(),
		Name:           in.Name,
		Price:          in.Price,
		RenewPrice:     in.RenewPrice,
		MaxDomains:     in.MaxDomains,
		MaxMailboxes:   in.MaxMailboxes,
		MaxAliases:     in.MaxAliases,
		StorageLimitGB: in.StorageLimitGB,
		IsPopular:      in.IsPopular,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO packages (id, name, price, renew_price, max_domains, max_mailboxes, max_aliases, storage_limit_gb, is_popular, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.Name, p.Price, p.RenewPrice, p.MaxDomains, p.MaxMailboxes,
		p.MaxAliases, p.StorageLimitGB, p.IsPopular, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return nil, ErrStore("create package", err)
	}
	return p, nil
}

// Update edits a package in place. Existing allocations are not re-validated
// against the new ceilings; they are only checked on the next change.
func (s *PackageService) Update(ctx context.Context, id string, in PackageInput) (*model.Package, error) {
	if err := validatePackage(in); err != nil {
		return nil, err
	}

	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Name = in.Name
	p.Price = in.Price
	p.RenewPrice = in.RenewPrice
	p.MaxDomains = in.MaxDomains
	p.MaxMailboxes = in.MaxMailboxes
	p.MaxAliases = in.MaxAliases
	p.StorageLimitGB = in.StorageLimitGB
	p.IsPopular = in.IsPopular
	p.UpdatedAt = time.Now()

	_, err = s.db.Exec(ctx,
		`UPDATE packages SET name = $1, price = $2, renew_price = $3, max_domains = $4, max_mailboxes = $5,
		 max_aliases = $6, storage_limit_gb = $7, is_popular = $8, updated_at = $9 WHERE id = $10`,
		p.Name, p.Price, p.RenewPrice, p.MaxDomains, p.MaxMailboxes,
		p.MaxAliases, p.StorageLimitGB, p.IsPopular, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return nil, ErrStore("update package", err)
	}
	return p, nil
}

// Delete removes a package. Refused while any user is subscribed to it.
func (s *PackageService) Delete(ctx context.Context, id string) error {
	var count int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM users WHERE package_id = $1`, id).Scan(&count); err != nil {
		return ErrStore("count subscribers", err)
	}
	if count > 0 {
		return ErrValidation(fmt.Sprintf("package has %d active subscriber(s)", count))
	}

	if _, err := s.db.Exec(ctx, `DELETE FROM packages WHERE id = $1`, id); err != nil {
		return ErrStore("delete package", err)
	}
	return nil
}

func validatePackage(in PackageInput) error {
	if in.Name == "" {
		return ErrValidation("package name is required")
	}
	if in.MaxDomains < 1 || in.MaxMailboxes < 1 || in.StorageLimitGB < 1 {
		return ErrValidation("package limits must be positive")
	}
	if in.MaxAliases < 0 || in.Price < 0 || in.RenewPrice < 0 {
		return ErrValidation("package values must not be negative")
	}
	return nil
}

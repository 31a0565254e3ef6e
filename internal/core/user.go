package core

import (
	"context"

	"github.com/edvin/mailpanel/internal/model"
)

// Profile is the authenticated user's own view: account plus plan.
type Profile struct {
	User    *model.User    `json:"user"`
	Package *model.Package `json:"package,omitempty"`
}

// UsageStats summarizes a user's consumption against their plan ceilings.
type UsageStats struct {
	Domains        int `json:"domains"`
	MaxDomains     int `json:"max_domains"`
	Mailboxes      int `json:"mailboxes"`
	MaxMailboxes   int `json:"max_mailboxes"`
	Aliases        int `json:"aliases"`
	MaxAliases     int `json:"max_aliases"`
	StorageMB      int `json:"storage_mb"`
	StorageLimitMB int `json:"storage_limit_mb"`
}

// AdminUserRow is one entry of the admin account listing: the account plus
// its resolved package name, nil for users without a plan.
type AdminUserRow struct {
	model.User
	PackageName *string `json:"package_name"`
}

type UserService struct {
	db DB
}

func NewUserService(db DB) *UserService {
	return &UserService{db: db}
}

// ListAll returns every account with its package name resolved, newest
// first. Admin surface.
func (s *UserService) ListAll(ctx context.Context) ([]AdminUserRow, error) {
	rows, err := s.db.Query(ctx,
		`SELECT u.id, u.name, u.email, u.role, u.package_id, u.subscription_status, u.created_at, u.updated_at, p.name
		 FROM users u LEFT JOIN packages p ON p.id = u.package_id
		 ORDER BY u.created_at DESC`)
	if err != nil {
		return nil, ErrStore("list users", err)
	}
	defer rows.Close()

	users := []AdminUserRow{}
	for rows.Next() {
		var row AdminUserRow
		if err := rows.Scan(&row.ID, &row.Name, &row.Email, &row.Role, &row.PackageID,
			&row.SubscriptionStatus, &row.CreatedAt, &row.UpdatedAt, &row.PackageName); err != nil {
			return nil, ErrStore("scan user", err)
		}
		users = append(users, row)
	}
	if err := rows.Err(); err != nil {
		return nil, ErrStore("iterate users", err)
	}
	return users, nil
}

// Me returns the user's profile with their package resolved, if any.
func (s *UserService) Me(ctx context.Context, userID string) (*Profile, error) {
	var u model.User
	err := s.db.QueryRow(ctx,
		`SELECT id, name, email, role, package_id, subscription_status, created_at, updated_at
		 FROM users WHERE id = $1`, userID,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PackageID, &u.SubscriptionStatus, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, ErrNotFound("user not found")
	}

	profile := &Profile{User: &u}
	if u.PackageID != nil {
		var p model.Package
		err := s.db.QueryRow(ctx,
			`SELECT id, name, price, renew_price, max_domains, max_mailboxes, max_aliases, storage_limit_gb, is_popular, created_at, updated_at
			 FROM packages WHERE id = $1`, *u.PackageID,
		).Scan(&p.ID, &p.Name, &p.Price, &p.RenewPrice, &p.MaxDomains, &p.MaxMailboxes,
			&p.MaxAliases, &p.StorageLimitGB, &p.IsPopular, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, ErrStore("load package", err)
		}
		profile.Package = &p
	}
	return profile, nil
}

// Stats sums the user's configured allocations across all their domains and
// pairs them with the plan ceilings. Allocated, not live, usage: this is the
// same ledger view the admission check uses.
func (s *UserService) Stats(ctx context.Context, userID string) (*UsageStats, error) {
	stats := &UsageStats{}

	err := s.db.QueryRow(ctx,
		`SELECT count(*), coalesce(sum(quota_storage_mb), 0), coalesce(sum(quota_mailboxes), 0), coalesce(sum(quota_aliases), 0)
		 FROM domains WHERE user_id = $1`, userID,
	).Scan(&stats.Domains, &stats.StorageMB, &stats.Mailboxes, &stats.Aliases)
	if err != nil {
		return nil, ErrStore("sum domain quotas", err)
	}

	var packageID *string
	if err := s.db.QueryRow(ctx, `SELECT package_id FROM users WHERE id = $1`, userID).Scan(&packageID); err != nil {
		return nil, ErrNotFound("user not found")
	}
	if packageID != nil {
		var maxStorageGB int
		err := s.db.QueryRow(ctx,
			`SELECT max_domains, max_mailboxes, max_aliases, storage_limit_gb FROM packages WHERE id = $1`, *packageID,
		).Scan(&stats.MaxDomains, &stats.MaxMailboxes, &stats.MaxAliases, &maxStorageGB)
		if err != nil {
			return nil, ErrStore("load package", err)
		}
		stats.StorageLimitMB = maxStorageGB * 1024
	}
	return stats, nil
}

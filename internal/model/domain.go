package model

import "time"

// Domain is the central entity: a hosted email domain with its allocated
// quota slice of the owning user's package.
type Domain struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Status string `json:"status"`
	// QuotaStorageMB is the allocated domain-level storage ceiling in MB,
	// distinct from the package-level GB limit.
	QuotaStorageMB int `json:"quota_storage_mb"`
	QuotaMailboxes int `json:"quota_mailboxes"`
	QuotaAliases   int `json:"quota_aliases"`
	// AdminUser is the provider-side domain-admin account, generated once at
	// creation and never regenerated on update.
	AdminUser string `json:"admin_user,omitempty"`
	// AdminPassEnc holds the AES-GCM-encrypted domain-admin password. Never
	// serialized.
	AdminPassEnc string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

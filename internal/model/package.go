package model

import "time"

// Package is a subscription tier. Its numeric fields are the ceilings a
// user's aggregate domain allocations must respect.
type Package struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Price          int       `json:"price"`
	RenewPrice     int       `json:"renew_price"`
	MaxDomains     int       `json:"max_domains"`
	MaxMailboxes   int       `json:"max_mailboxes"`
	MaxAliases     int       `json:"max_aliases"`
	StorageLimitGB int       `json:"storage_limit_gb"`
	IsPopular      bool      `json:"is_popular"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

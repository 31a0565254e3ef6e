package request

type UpsertPackage struct {
	Name           string `json:"name" validate:"required,max=100"`
	Price          int    `json:"price" validate:"min=0"`
	RenewPrice     int    `json:"renew_price" validate:"min=0"`
	MaxDomains     int    `json:"max_domains" validate:"required,min=1"`
	MaxMailboxes   int    `json:"max_mailboxes" validate:"required,min=1"`
	MaxAliases     int    `json:"max_aliases" validate:"min=0"`
	StorageLimitGB int    `json:"storage_limit_gb" validate:"required,min=1"`
	IsPopular      bool   `json:"is_popular"`
}

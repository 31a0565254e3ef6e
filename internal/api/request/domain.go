package request

type CreateDomain struct {
	Name      string `json:"name" validate:"required,fqdn"`
	StorageMB int    `json:"storage_mb" validate:"required,min=10"`
	Mailboxes int    `json:"mailboxes" validate:"required,min=1"`
	Aliases   int    `json:"aliases" validate:"min=0"`
}

type UpdateDomain struct {
	StorageMB int `json:"storage_mb" validate:"required,min=10"`
	Mailboxes int `json:"mailboxes" validate:"required,min=1"`
	Aliases   int `json:"aliases" validate:"min=0"`
}

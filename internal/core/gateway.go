package core

import (
	"context"

	"github.com/edvin/mailpanel/internal/mailcow"
)

// Gateway is the mail-provider surface the services depend on, satisfied by
// *mailcow.Client and mocked in tests.
type Gateway interface {
	CreateDomain(ctx context.Context, p mailcow.DomainParams) mailcow.Result
	EditDomain(ctx context.Context, name string, p mailcow.DomainParams) mailcow.Result
	CreateDomainAdmin(ctx context.Context, username, password string, domains []string) mailcow.Result
	CreateMailbox(ctx context.Context, p mailcow.MailboxParams) mailcow.Result
	CreateAlias(ctx context.Context, address, target string) mailcow.Result
	DeleteDomain(ctx context.Context, name string) mailcow.Result
	DeleteDomainAdmin(ctx context.Context, username string) mailcow.Result
	DeleteMailbox(ctx context.Context, address string) mailcow.Result
	DeleteAlias(ctx context.Context, id string) mailcow.Result
	ListMailboxes(ctx context.Context, domain string) ([]mailcow.Mailbox, error)
	ListAliases(ctx context.Context, domain string) ([]mailcow.Alias, error)
}

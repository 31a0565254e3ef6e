package core

import "github.com/rs/zerolog"

type Services struct {
	Auth    *AuthService
	User    *UserService
	Package *PackageService
	Order   *OrderService
	Domain  *DomainService
	Mailbox *MailboxService
}

func NewServices(db DB, gw Gateway, credKey []byte, jwtSecret, jwtIssuer string, logger zerolog.Logger) *Services {
	domains := NewDomainService(db, gw, credKey, logger)
	return &Services{
		Auth:    NewAuthService(db, jwtSecret, jwtIssuer),
		User:    NewUserService(db),
		Package: NewPackageService(db),
		Order:   NewOrderService(db, logger),
		Domain:  domains,
		Mailbox: NewMailboxService(db, gw, domains, credKey, logger),
	}
}

package model

import "time"

// Mailbox is the local credential cache for a provider-side mailbox. The
// encrypted password lets the panel authenticate against the IMAP/SMTP
// server on the user's behalf without re-prompting.
type Mailbox struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	DomainName  string    `json:"domain_name"`
	Address     string    `json:"address"`
	PasswordEnc string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}
